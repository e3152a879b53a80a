package types

import "fmt"

// Direction selects which of a track's cells a synchronization touches,
// relative to a frame.
type Direction string

// Directions accepted by ParseDirection.
const (
	DirectionBefore Direction = "before" // t < frame
	DirectionAfter  Direction = "after"  // t >= frame
	DirectionAll    Direction = "all"
)

// ParseDirection validates s. Unknown values return ErrInvalidArgument.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionBefore, DirectionAfter, DirectionAll:
		return d, nil
	}
	return "", fmt.Errorf("direction %q: %w", s, ErrInvalidArgument)
}

// Includes reports whether a cell at time t falls on the selected side of
// frame.
func (d Direction) Includes(t, frame int64) bool {
	switch d {
	case DirectionBefore:
		return t < frame
	case DirectionAfter:
		return t >= frame
	case DirectionAll:
		return true
	}
	return false
}

// Operation names a two-track integration.
type Operation string

// Operations accepted by ParseOperation.
const (
	OperationMerge   Operation = "merge"
	OperationConnect Operation = "connect"
)

// ParseOperation validates s. Unknown values return ErrInvalidArgument.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OperationMerge, OperationConnect:
		return op, nil
	}
	return "", fmt.Errorf("operation %q: %w", s, ErrInvalidArgument)
}
