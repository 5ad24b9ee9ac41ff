package aggregate

// Limit implements LIMIT offset num: keep at most Total rows
// starting at Offset. A negative or out-of-range Offset yields no rows;
// the fan-out coordinator's applyLimit instead treats a negative offset
// as 0.
type Limit struct {
	Offset int
	Total  int
}

func (l Limit) Apply(rows []Row) ([]Row, error) {
	if l.Offset < 0 || l.Offset >= len(rows) {
		return nil, nil
	}
	end := l.Offset + l.Total
	if l.Total < 0 || end > len(rows) {
		end = len(rows)
	}
	return rows[l.Offset:end], nil
}
