// Package validate checks a track database for schema and lineage
// integrity.
//
// Each check returns human-readable findings; no findings means the check
// passed. Run composes the checks into a single Report. Data problems are
// findings, never errors: Run returns an error only when the store cannot be
// read.
package validate
