package edit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gardener/internal/storetest"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

func TestCut_Split(t *testing.T) {
	store := storetest.OpenExtended(t)

	var res CutResult
	update(t, store, func(tx types.Tx) error {
		var err error
		res, err = Cut(tx, 1, 5)
		return err
	})

	assert.False(t, res.Mitosis)
	require.NotNil(t, res.NewTrack)
	assert.Equal(t, int64(6), *res.NewTrack)

	got := storetest.Tracks(t, store)
	assert.Equal(t, int64(4), got[1].TEnd)
	assert.Equal(t, storetest.Track(6, types.NoParent, 6, 5, 10), got[6])
	for _, id := range []int64{2, 3} {
		assert.Equal(t, int64(6), got[id].ParentTrackID, "child %d", id)
		assert.Equal(t, int64(6), got[id].Root, "child %d", id)
	}
	assert.Equal(t, int64(3), got[4].ParentTrackID)
	assert.Equal(t, int64(6), got[4].Root)
	assert.Equal(t, storetest.Track(5, types.NoParent, 5, 41, 45), got[5])
}

func TestCut_Mitosis(t *testing.T) {
	store := storetest.OpenExtended(t)

	var res CutResult
	update(t, store, func(tx types.Tx) error {
		var err error
		res, err = Cut(tx, 3, 11)
		return err
	})

	assert.Equal(t, CutResult{Mitosis: true}, res)
	got := storetest.Tracks(t, store)
	assert.Equal(t, storetest.Track(3, types.NoParent, 3, 11, 20), got[3])
	assert.Equal(t, storetest.Track(4, 3, 3, 21, 40), got[4])
	assert.Equal(t, int64(1), got[2].Root)
	assert.Len(t, got, 5, "no track created")
}

func TestCut_NoOp(t *testing.T) {
	tests := []struct {
		name  string
		id    int64
		frame int64
	}{
		{name: "start of floating track", id: 1, frame: 0},
		{name: "after end", id: 1, frame: 30},
		{name: "before start", id: 4, frame: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storetest.OpenExtended(t)
			before := storetest.Tracks(t, store)

			var res CutResult
			update(t, store, func(tx types.Tx) error {
				var err error
				res, err = Cut(tx, tt.id, tt.frame)
				return err
			})

			assert.Equal(t, CutResult{}, res)
			if diff := cmp.Diff(before, storetest.Tracks(t, store)); diff != "" {
				t.Errorf("store changed (-before +after):\n%s", diff)
			}
		})
	}
}

func TestCut_SkipsCellGap(t *testing.T) {
	store := storetest.OpenExtended(t)

	var res CutResult
	update(t, store, func(tx types.Tx) error {
		for f := int64(20); f <= 24; f++ {
			if err := tx.DeleteCell(2, f); err != nil {
				return err
			}
		}
		var err error
		res, err = Cut(tx, 2, 22)
		return err
	})

	require.NotNil(t, res.NewTrack)
	got := storetest.Tracks(t, store)
	assert.Equal(t, int64(19), got[2].TEnd)
	assert.Equal(t, int64(25), got[*res.NewTrack].TBegin)
	assert.Equal(t, int64(50), got[*res.NewTrack].TEnd)
}

func TestCut_MissingTrack(t *testing.T) {
	store := storetest.OpenExtended(t)
	err := updateErr(store, func(tx types.Tx) error {
		_, err := Cut(tx, 42, 3)
		return err
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}
