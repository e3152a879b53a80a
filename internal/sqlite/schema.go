// This file implements schema introspection for the validator.
package sqlite

import (
	"fmt"
)

// TableNames lists the user tables of the database.
func (s *sqlTx) TableNames() ([]string, error) {
	rows, err := s.tx.Query(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// TableColumns lists the columns of table in declaration order. A missing
// table yields no columns.
func (s *sqlTx) TableColumns(table string) ([]string, error) {
	rows, err := s.tx.Query("SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

type stringRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanStrings(rows stringRows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
