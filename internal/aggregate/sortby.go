package aggregate

import "sort"

// SortOrder is one SORTBY field/direction pair.
type SortOrder struct {
	Field string
	Desc  bool
}

// SortBy stable-sorts rows by Orders in sequence, with an optional MAX n
// cap on the retained row count after sorting. Field names are
// validated to start with "@" by the command layer, not here — this
// stage only ever sees bare row keys.
type SortBy struct {
	Orders []SortOrder
	Max    int // 0 means unbounded
}

func (s SortBy) Apply(rows []Row) ([]Row, error) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range s.Orders {
			a, b := rows[i][o.Field], rows[j][o.Field]
			switch {
			case lessRowValue(a, b, o.Desc):
				return true
			case lessRowValue(b, a, o.Desc):
				return false
			}
		}
		return false
	})
	if s.Max > 0 && len(rows) > s.Max {
		rows = rows[:s.Max]
	}
	return rows, nil
}

// lessRowValue mirrors the coordinator's SORTBY comparator: nulls always
// sort last regardless of direction, numbers compare numerically,
// everything else compares as its stringified form.
func lessRowValue(a, b any, desc bool) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	af, aok := coerceNumber(a)
	bf, bok := coerceNumber(b)
	if aok && bok {
		if desc {
			return af > bf
		}
		return af < bf
	}
	as, bs := stringify(a), stringify(b)
	if desc {
		return as > bs
	}
	return as < bs
}
