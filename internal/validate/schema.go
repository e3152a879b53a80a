package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

// TablesPresent reports required tables missing from the database.
func TablesPresent(tx types.Tx) ([]string, error) {
	names, err := tx.TableNames()
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	var missing []string
	for table := range types.SchemaColumns() {
		if !have[table] {
			missing = append(missing, table)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}
	sort.Strings(missing)
	return []string{"Missing tables: " + strings.Join(missing, ", ")}, nil
}

// ColumnsPresent reports required columns missing from tables that exist.
// Missing tables are left to TablesPresent.
func ColumnsPresent(tx types.Tx) ([]string, error) {
	schema := types.SchemaColumns()
	tables := make([]string, 0, len(schema))
	for table := range schema {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	var findings []string
	for _, table := range tables {
		cols, err := tx.TableColumns(table)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			continue
		}
		have := make(map[string]bool, len(cols))
		for _, c := range cols {
			have[c] = true
		}
		var missing []string
		for _, c := range schema[table] {
			if !have[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			findings = append(findings, fmt.Sprintf("Missing columns in '%s': %s", table, strings.Join(missing, ", ")))
		}
	}
	return findings, nil
}

// NoOrphanCells reports cells whose track does not exist.
func NoOrphanCells(tx types.Tx) ([]string, error) {
	n, err := tx.OrphanCellCount()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return []string{fmt.Sprintf("Orphaned cells found: %d", n)}, nil
	}
	return nil, nil
}

// NoOrphanTracks reports tracks that own no cells.
func NoOrphanTracks(tx types.Tx) ([]string, error) {
	ids, err := tx.EmptyTracks()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return []string{"Tracks with no associated cells: " + strings.Join(parts, ", ")}, nil
}
