// Package types defines the track and cell entities, the Store and Tx
// interfaces, and the standard errors for the gardener track database.
//
// A lineage is a forest of tracks. Each track is a linear run of per-frame
// cell observations; parent/child links between tracks record divisions.
// Mutation of the root and parent fields belongs to the edit package; every
// other package treats them as read-only.
package types
