package benchmark

import (
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/engine"
)

func BenchmarkMemory_PostingsIteration(b *testing.B) {
	docIDs, freqs := buildPostings(10000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it := engine.NewSlicePostingsIterator(docIDs, freqs)
		for it.Next() {
			_ = it.DocID()
			_ = it.Freq()
		}
	}
}
