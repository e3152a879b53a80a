// Package lineage answers structural questions about the track forest:
// descendants of a track, identifier allocation, per-root lineage graphs,
// and the signal names present on cells. It only reads the store.
package lineage
