package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantdesk/advisor/internal/domain"
	"github.com/quantdesk/advisor/internal/fundamental"
)

// FileSource reads candle snapshots from a local directory, one JSON array
// of candles per instrument at <dir>/<code>.json. Used for offline runs
// and replaying recorded sessions.
type FileSource struct {
	dir string
}

// NewFileSource creates a snapshot-backed candle source.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Fetch implements CandleSource. When the snapshot holds more bars than
// requested, the most recent lookbackDays bars are returned.
func (s *FileSource) Fetch(code string, lookbackDays int) ([]domain.Candle, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, code+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read candle snapshot for %s: %w", code, err)
	}

	var candles []domain.Candle
	if err := json.Unmarshal(raw, &candles); err != nil {
		return nil, fmt.Errorf("failed to parse candle snapshot for %s: %w", code, err)
	}
	if lookbackDays > 0 && len(candles) > lookbackDays {
		candles = candles[len(candles)-lookbackDays:]
	}
	return candles, nil
}

type statementSnapshot struct {
	Current  *fundamental.Financials `json:"current"`
	Previous *fundamental.Financials `json:"previous"`
}

// FileStatementSource reads financial statements from <dir>/<code>.json.
// An absent file means the statements are unavailable, not an error.
type FileStatementSource struct {
	dir string
}

// NewFileStatementSource creates a snapshot-backed statement source.
func NewFileStatementSource(dir string) *FileStatementSource {
	return &FileStatementSource{dir: dir}
}

// Statements implements fundamental.StatementSource.
func (s *FileStatementSource) Statements(code string) (current, previous *fundamental.Financials, err error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, code+".json"))
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read statements for %s: %w", code, err)
	}

	var snapshot statementSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, nil, fmt.Errorf("failed to parse statements for %s: %w", code, err)
	}
	return snapshot.Current, snapshot.Previous, nil
}
