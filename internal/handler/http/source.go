package http

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/fixtures"
)

// FixtureSource serves dir/YYYY-MM-DD.csv when present and the embedded
// sample export otherwise. An empty dir always serves the sample.
type FixtureSource struct {
	Dir string
}

func (s FixtureSource) Export(ctx context.Context, day time.Time) ([]byte, error) {
	if s.Dir != "" {
		path := filepath.Join(s.Dir, day.Format("2006-01-02")+".csv")
		body, err := os.ReadFile(path)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read fixture: %w", err)
		}
	}
	return fixtures.Export(day), nil
}
