package edit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gardener/internal/validate"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

func update(t *testing.T, store types.Store, fn func(tx types.Tx) error) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), fn))
}

// updateErr runs fn and returns its error; the transaction rolls back on
// failure.
func updateErr(store types.Store, fn func(tx types.Tx) error) error {
	return store.Update(context.Background(), fn)
}

func requireValid(t *testing.T, store types.Store) {
	t.Helper()
	rep, err := validate.Run(context.Background(), store)
	require.NoError(t, err)
	require.True(t, rep.OK(), rep.String())
}

func frames(from, to int64) []int64 {
	var out []int64
	for f := from; f <= to; f++ {
		out = append(out, f)
	}
	return out
}
