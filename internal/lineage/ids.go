package lineage

import (
	"errors"
	"sort"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

// NewTrackID returns one more than the largest track id, or 1 on an empty
// store. Allocation is read-then-write: callers hold the single writer.
func NewTrackID(tx types.Tx) (int64, error) {
	max, err := tx.MaxTrackID()
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// NewCellID returns one more than the largest cell id, or 1 when there are
// no cells.
func NewCellID(tx types.Tx) (int64, error) {
	max, err := tx.MaxCellID()
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Signals returns the sorted signal names of an arbitrary cell, or an empty
// slice when the store has no cells.
func Signals(tx types.Tx) ([]string, error) {
	c, err := tx.AnyCell()
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(c.Signals))
	for k := range c.Signals {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}
