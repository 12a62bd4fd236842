package seeder

import (
	"context"
	"fmt"
	"log"
	"strings"

	"jobdash/internal/database"
)

// Seeder writes fixture rows. Reruns must be harmless.
type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}

type Runner struct {
	Seeders []Seeder
	Logger  *log.Logger
}

// Run executes every seeder in order. only, when non-empty, restricts the run
// to seeders with those names.
func (r Runner) Run(ctx context.Context, db database.DB, only ...string) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	want := map[string]bool{}
	for _, n := range only {
		if n = strings.TrimSpace(n); n != "" {
			want[n] = true
		}
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if len(want) > 0 && !want[s.Name()] {
			continue
		}
		if err := s.Run(ctx, db); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		if r.Logger != nil {
			r.Logger.Printf("[Seeder] done name=%s", s.Name())
		}
	}
	return nil
}
