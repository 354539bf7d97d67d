package fundamental

import "fmt"

// StatementSource supplies the latest two annual statements for an
// instrument. Both may be nil when the issuer has not filed.
type StatementSource interface {
	Statements(code string) (current, previous *Financials, err error)
}

// Scorer turns raw statements into health scores. It satisfies the
// advisory engine's score-source contract.
type Scorer struct {
	statements StatementSource
	sectors    func(code string) string
	benchmarks map[string]Benchmark
}

// NewScorer creates a scorer over a statement source. A nil sectors
// function maps everything to the default sector benchmarks.
func NewScorer(statements StatementSource, sectors func(code string) string, benchmarks map[string]Benchmark) *Scorer {
	if sectors == nil {
		sectors = func(string) string { return DefaultSector }
	}
	if benchmarks == nil {
		benchmarks = DefaultBenchmarks()
	}
	return &Scorer{statements: statements, sectors: sectors, benchmarks: benchmarks}
}

// Score computes the fundamental health score for one instrument. Missing
// statements yield an unavailable result rather than an error; only source
// failures are errors.
func (s *Scorer) Score(code string, marketCap, sharesOutstanding *float64) (ScoreResult, error) {
	current, previous, err := s.statements.Statements(code)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("statement lookup for %s failed: %w", code, err)
	}

	return ScoreStock(s.sectors(code), current, previous, marketCap, sharesOutstanding, s.benchmarks), nil
}
