// internal/store/lineage.go
package store

import (
	"context"
	"database/sql"

	"assessment-engine/internal/common/errors"
)

// maxLineageHops bounds the parent-pointer walk. The chain is
// graph-shaped only in schema; a misconfigured chain could cycle, so the
// walk never trusts it to be acyclic.
const maxLineageHops = 32

// LineageWalker resolves template version lineages from the
// parent_template_id chain.
type LineageWalker struct {
	db *sql.DB
}

func NewLineageWalker(db *sql.DB) *LineageWalker {
	return &LineageWalker{db: db}
}

// RootOf walks parent pointers up from templateID and returns the lineage
// root. Cycles and over-long chains stop the walk at the last sound hop.
func (w *LineageWalker) RootOf(ctx context.Context, templateID string) (string, error) {
	parents, err := w.loadParents(ctx)
	if err != nil {
		return "", err
	}
	return rootOf(templateID, parents), nil
}

// LineageIDs returns every template ID sharing templateID's lineage root,
// including the root itself.
func (w *LineageWalker) LineageIDs(ctx context.Context, templateID string) ([]string, error) {
	parents, err := w.loadParents(ctx)
	if err != nil {
		return nil, err
	}

	root := rootOf(templateID, parents)

	ids := []string{root}
	for id := range parents {
		if id == root {
			continue
		}
		if rootOf(id, parents) == root {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (w *LineageWalker) loadParents(ctx context.Context) (map[string]string, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT id, parent_template_id FROM templates`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("lineage load", err)
	}
	defer rows.Close()

	parents := make(map[string]string)
	for rows.Next() {
		var id string
		var parent sql.NullString
		if err := rows.Scan(&id, &parent); err != nil {
			return nil, errors.NewQueryExecutionFailedError("lineage scan", err)
		}
		if parent.Valid {
			parents[id] = parent.String
		} else {
			parents[id] = ""
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("lineage rows", err)
	}
	return parents, nil
}

func rootOf(id string, parents map[string]string) string {
	seen := map[string]bool{id: true}
	current := id
	for hop := 0; hop < maxLineageHops; hop++ {
		parent, ok := parents[current]
		if !ok || parent == "" {
			return current
		}
		if seen[parent] {
			// cycle: treat the last sound node as root
			return current
		}
		seen[parent] = true
		current = parent
	}
	return current
}
