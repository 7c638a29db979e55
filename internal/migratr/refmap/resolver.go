package refmap

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/equilibrar/migratr/internal/migratr/logger"
	"github.com/equilibrar/migratr/internal/migratr/normalize"
)

// Store is the slice of the database the resolver needs.
type Store interface {
	SelectPairs(ctx context.Context, query string, args ...any) (map[string]int64, error)
	Exec(ctx context.Context, query string, args ...any) error
	InsertSQL(table string, cols ...string) string
}

// TableSpec describes one dimension table.
type TableSpec struct {
	Table  string
	IDCol  string
	KeyCol string
	// ExtraCols/ExtraVals are constant columns stamped onto every inserted
	// row (previsiones get tipo='ISAPRE').
	ExtraCols []string
	ExtraVals []any
	// CaseSensitive keys are codes; names are matched case-insensitively.
	CaseSensitive bool
}

// Resolver guarantees that every natural key an entity phase will reference
// has a dimension row before that phase runs.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Ensure implements the diff-then-insert-then-reload protocol: fetch the
// existing keys, insert only the missing ones, then reload the whole table
// into a Map. The store has no upsert, so the set difference is what keeps
// re-runs from tripping duplicate-key failures: running Ensure twice with
// the same input yields the same map and no extra rows.
func (r *Resolver) Ensure(ctx context.Context, spec TableSpec, keys []string) (*Map, error) {
	log := logger.L()
	selectSQL := fmt.Sprintf("SELECT %s, %s FROM %s", spec.IDCol, spec.KeyCol, spec.Table)

	existing, err := r.store.SelectPairs(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("fetch existing %s: %w", spec.Table, err)
	}

	normKey := func(k string) string {
		if spec.CaseSensitive {
			return k
		}
		return strings.ToLower(k)
	}

	have := make(map[string]struct{}, len(existing))
	for k := range existing {
		have[normKey(k)] = struct{}{}
	}

	// Distinct wanted keys; the first-seen cleaned spelling is what gets
	// inserted. Keys that normalize to absent are skipped entirely.
	missing := make(map[string]string)
	for _, raw := range keys {
		clean, ok := normalize.CleanText(raw)
		if !ok {
			continue
		}
		n := normKey(clean)
		if _, exists := have[n]; exists {
			continue
		}
		if _, seen := missing[n]; !seen {
			missing[n] = clean
		}
	}

	if len(missing) > 0 {
		cols := append([]string{spec.KeyCol}, spec.ExtraCols...)
		insertSQL := r.store.InsertSQL(spec.Table, cols...)

		// sorted for a deterministic insert order across runs
		norms := make([]string, 0, len(missing))
		for n := range missing {
			norms = append(norms, n)
		}
		sort.Strings(norms)

		for _, n := range norms {
			args := append([]any{missing[n]}, spec.ExtraVals...)
			if err := r.store.Exec(ctx, insertSQL, args...); err != nil {
				return nil, fmt.Errorf("insert %s %q: %w", spec.Table, missing[n], err)
			}
		}
		log.Infow("dimension keys inserted", "table", spec.Table, "inserted", len(missing))
	}

	reloaded, err := r.store.SelectPairs(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", spec.Table, err)
	}
	log.Debugw("dimension map built", "table", spec.Table, "entries", len(reloaded))
	return FromPairs(reloaded, spec.CaseSensitive), nil
}
