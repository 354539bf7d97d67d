package data

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quantdesk/advisor/internal/advisory"
)

// FactorFileSource reads the ranking table dumped by the external factor
// pipeline. A missing file means no run has completed yet, which is a
// valid absent-ranking state, not an error.
type FactorFileSource struct {
	path string
}

// NewFactorFileSource creates a ranking source over the pipeline's
// output file.
func NewFactorFileSource(path string) *FactorFileSource {
	return &FactorFileSource{path: path}
}

// LatestRanking implements advisory.FactorSignalSource.
func (s *FactorFileSource) LatestRanking() (*advisory.FactorRanking, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read factor ranking: %w", err)
	}

	var ranking advisory.FactorRanking
	if err := json.Unmarshal(raw, &ranking); err != nil {
		return nil, fmt.Errorf("failed to parse factor ranking: %w", err)
	}
	return &ranking, nil
}
