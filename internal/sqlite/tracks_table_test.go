package sqlite

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

// seedLineage stores 1 -> {2, 3}, 3 -> 4, and a floating 5.
func seedLineage(t *testing.T, b *Backend) {
	t.Helper()
	tracks := []types.Track{
		{TrackID: 1, ParentTrackID: types.NoParent, Root: 1, TBegin: 0, TEnd: 10},
		{TrackID: 2, ParentTrackID: 1, Root: 1, TBegin: 11, TEnd: 50},
		{TrackID: 3, ParentTrackID: 1, Root: 1, TBegin: 11, TEnd: 20},
		{TrackID: 4, ParentTrackID: 3, Root: 1, TBegin: 21, TEnd: 40},
		{TrackID: 5, ParentTrackID: types.NoParent, Root: 5, TBegin: 41, TEnd: 45},
	}
	require.NoError(t, b.Update(context.Background(), func(tx types.Tx) error {
		for _, tr := range tracks {
			tr.Tags = types.Tags{}
			if err := tx.InsertTrack(tr); err != nil {
				return err
			}
		}
		return nil
	}))
}

func trackIDs(ts []types.Track) []int64 {
	ids := make([]int64, len(ts))
	for i, t := range ts {
		ids[i] = t.TrackID
	}
	return ids
}

func TestTracks_Filter(t *testing.T) {
	b, _ := attachTemp(t)
	seedLineage(t, b)

	tests := []struct {
		name   string
		filter types.TrackFilter
		want   []int64
	}{
		{name: "all", filter: types.TrackFilter{}, want: []int64{1, 2, 3, 4, 5}},
		{name: "by root", filter: types.TrackFilter{Root: types.Int64(1)}, want: []int64{1, 2, 3, 4}},
		{name: "by parent", filter: types.TrackFilter{Parent: types.Int64(1)}, want: []int64{2, 3}},
		{name: "by ids", filter: types.TrackFilter{TrackIDs: []int64{5, 2, 99}}, want: []int64{2, 5}},
		{name: "empty ids", filter: types.TrackFilter{TrackIDs: []int64{}}, want: []int64{}},
		{name: "time overlap", filter: types.TrackFilter{TimeFrom: types.Int64(21), TimeTo: types.Int64(41)}, want: []int64{2, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, b.View(context.Background(), func(tx types.Tx) error {
				got, err := tx.Tracks(tt.filter)
				require.NoError(t, err)
				assert.ElementsMatch(t, tt.want, trackIDs(got))
				return nil
			}))
		})
	}
}

func TestTracks_CRUD(t *testing.T) {
	b, _ := attachTemp(t)
	ctx := context.Background()

	want := types.NewRootTrack(7, 3, 9)
	want.Tags["reviewed"] = types.Bool(true)
	want.Notes = "divides late"
	want.AcceptedTag = true

	require.NoError(t, b.Update(ctx, func(tx types.Tx) error {
		require.NoError(t, tx.InsertTrack(want))

		got, err := tx.Track(7)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("track mismatch (-want +got):\n%s", diff)
		}

		got.TEnd = 12
		got.ParentTrackID = 2
		require.NoError(t, tx.UpdateTrack(got))
		again, err := tx.Track(7)
		require.NoError(t, err)
		assert.Equal(t, int64(12), again.TEnd)
		assert.Equal(t, int64(2), again.ParentTrackID)

		assert.ErrorIs(t, tx.UpdateTrack(types.NewRootTrack(99, 0, 0)), types.ErrNotFound)
		require.NoError(t, tx.DeleteTrack(7))
		assert.ErrorIs(t, tx.DeleteTrack(7), types.ErrNotFound)
		_, err = tx.Track(7)
		assert.ErrorIs(t, err, types.ErrNotFound)
		return nil
	}))
}

func TestTracks_InsertRejectsReservedIDs(t *testing.T) {
	b, _ := attachTemp(t)
	require.NoError(t, b.Update(context.Background(), func(tx types.Tx) error {
		for _, id := range []int64{types.NoParent, 0} {
			assert.ErrorIs(t, tx.InsertTrack(types.NewRootTrack(id, 0, 1)), types.ErrInvalidArgument)
		}
		n, err := tx.MaxTrackID()
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	}))
}

func TestTracks_MaxAndEdges(t *testing.T) {
	b, _ := attachTemp(t)
	ctx := context.Background()

	require.NoError(t, b.View(ctx, func(tx types.Tx) error {
		max, err := tx.MaxTrackID()
		require.NoError(t, err)
		assert.Equal(t, int64(0), max)
		return nil
	}))

	seedLineage(t, b)
	require.NoError(t, b.View(ctx, func(tx types.Tx) error {
		max, err := tx.MaxTrackID()
		require.NoError(t, err)
		assert.Equal(t, int64(5), max)

		edges, err := tx.TrackEdges()
		require.NoError(t, err)
		assert.Equal(t, []types.Edge{{Parent: 1, Child: 2}, {Parent: 1, Child: 3}, {Parent: 3, Child: 4}}, edges)

		empty, err := tx.EmptyTracks()
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, empty)
		return nil
	}))
}
