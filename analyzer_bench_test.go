package poolalloc_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/mpyw/poolalloc"
)

// BenchmarkAnalyzer benchmarks the analyzer on test fixtures.
func BenchmarkAnalyzer(b *testing.B) {
	testdata := analysistest.TestData()

	b.Run("Pools", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			analysistest.Run(b, testdata, poolalloc.Analyzer, "pools")
		}
	})
	b.Run("Recursion", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			analysistest.Run(b, testdata, poolalloc.Analyzer, "recursion")
		}
	})
}
