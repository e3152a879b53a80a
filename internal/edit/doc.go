// Package edit implements the track mutation engine and the synchronization
// between tracks and their cells.
//
// The functions that take a types.Tx are primitives: each performs one
// structural change and composes with the others inside a single
// transaction. They are the only code that rewrites the parent and root
// fields of a track. Editor wraps whole user edits, including the cell
// moves that follow a structural change, in one Store.Update each.
package edit
