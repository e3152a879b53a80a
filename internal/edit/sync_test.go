package edit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gardener/internal/storetest"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

func TestSyncCellsForTrackEdit(t *testing.T) {
	store := storetest.OpenExtended(t)
	target := int64(2)

	update(t, store, func(tx types.Tx) error {
		n, err := SyncCellsForTrackEdit(tx, 5, 44, nil, types.DirectionAfter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = SyncCellsForTrackEdit(tx, 1, 3, &target, types.DirectionBefore)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		return nil
	})

	assert.Equal(t, frames(41, 43), storetest.CellTimes(t, store, 5))
	assert.Equal(t, frames(3, 10), storetest.CellTimes(t, store, 1))
	assert.Equal(t, append(frames(0, 2), frames(11, 50)...), storetest.CellTimes(t, store, 2))
}

func TestSyncCellsForTrackEdit_Errors(t *testing.T) {
	store := storetest.OpenExtended(t)

	err := updateErr(store, func(tx types.Tx) error {
		_, err := SyncCellsForTrackEdit(tx, 5, 44, nil, "sideways")
		return err
	})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	err = updateErr(store, func(tx types.Tx) error {
		_, err := SyncCellsForTrackEdit(tx, 5, 41, nil, types.DirectionBefore)
		return err
	})
	assert.ErrorIs(t, err, types.ErrLogic)
	assert.Equal(t, frames(41, 45), storetest.CellTimes(t, store, 5))
}

func TestRemoveCell(t *testing.T) {
	tests := []struct {
		name  string
		track int64
		frame int64
		want  map[int64]types.Track
	}{
		{
			name:  "first frame detaches from parent",
			track: 2, frame: 11,
			want: map[int64]types.Track{
				2: storetest.Track(2, types.NoParent, 2, 12, 50),
			},
		},
		{
			name:  "last frame detaches children",
			track: 3, frame: 20,
			want: map[int64]types.Track{
				3: storetest.Track(3, 1, 1, 11, 19),
				4: storetest.Track(4, types.NoParent, 4, 21, 40),
			},
		},
		{
			name:  "middle frame keeps bounds",
			track: 2, frame: 30,
			want: map[int64]types.Track{
				2: storetest.Track(2, 1, 1, 11, 50),
				3: storetest.Track(3, 1, 1, 11, 20),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storetest.OpenExtended(t)
			update(t, store, func(tx types.Tx) error {
				return RemoveCell(tx, tt.track, tt.frame)
			})

			got := storetest.Tracks(t, store)
			for id, want := range tt.want {
				assert.Equal(t, want, got[id], "track %d", id)
			}
			assert.NotContains(t, storetest.CellTimes(t, store, tt.track), tt.frame)
			requireValid(t, store)
		})
	}
}

func TestRemoveCell_LastCellDeletesTrack(t *testing.T) {
	store := storetest.OpenExtended(t)

	update(t, store, func(tx types.Tx) error {
		for f := int64(41); f <= 45; f++ {
			if err := RemoveCell(tx, 5, f); err != nil {
				return err
			}
		}
		return nil
	})

	_, ok := storetest.Get(t, store, 5)
	assert.False(t, ok)
	requireValid(t, store)
}

func TestRemoveCell_Missing(t *testing.T) {
	store := storetest.OpenExtended(t)
	err := updateErr(store, func(tx types.Tx) error {
		return RemoveCell(tx, 2, 99)
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAddCell(t *testing.T) {
	tests := []struct {
		name  string
		track int64
		frame int64
		want  map[int64]types.Track
	}{
		{
			name:  "new track",
			track: 42, frame: 7,
			want: map[int64]types.Track{
				42: storetest.Track(42, types.NoParent, 42, 7, 7),
			},
		},
		{
			name:  "extends end",
			track: 5, frame: 46,
			want: map[int64]types.Track{
				5: storetest.Track(5, types.NoParent, 5, 41, 46),
			},
		},
		{
			name:  "extends end past child start",
			track: 3, frame: 21,
			want: map[int64]types.Track{
				3: storetest.Track(3, 1, 1, 11, 21),
				4: storetest.Track(4, types.NoParent, 4, 21, 40),
			},
		},
		{
			name:  "before start detaches from parent",
			track: 4, frame: 20,
			want: map[int64]types.Track{
				4: storetest.Track(4, types.NoParent, 4, 20, 40),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storetest.OpenExtended(t)

			var added types.Cell
			update(t, store, func(tx types.Tx) error {
				var err error
				added, err = AddCell(tx, types.NewCell(tt.track, tt.frame, 0), true)
				return err
			})

			assert.Equal(t, int64(87), added.ID, "next id after 86 seeded cells")
			assert.True(t, added.Tags.Flag(TagModified))

			got := storetest.Tracks(t, store)
			for id, want := range tt.want {
				assert.Equal(t, want, got[id], "track %d", id)
			}
			assert.Contains(t, storetest.CellTimes(t, store, tt.track), tt.frame)
			requireValid(t, store)
		})
	}
}

func TestAddCell_RejectsReservedTrackIDs(t *testing.T) {
	for _, id := range []int64{types.NoParent, 0, -7} {
		t.Run(fmt.Sprint(id), func(t *testing.T) {
			store := storetest.OpenExtended(t)
			before := storetest.Tracks(t, store)

			_, err := NewEditor(store).AddCell(context.Background(), types.NewCell(id, 3, 0), false)
			require.ErrorIs(t, err, types.ErrInvalidArgument)

			err = updateErr(store, func(tx types.Tx) error {
				return SyncTrackAfterCellChange(tx, id, 3)
			})
			require.ErrorIs(t, err, types.ErrInvalidArgument)

			assert.Equal(t, before, storetest.Tracks(t, store))
			assert.Empty(t, storetest.CellTimes(t, store, id))
		})
	}
}

func TestAddCell_Duplicate(t *testing.T) {
	store := storetest.OpenExtended(t)
	err := updateErr(store, func(tx types.Tx) error {
		_, err := AddCell(tx, types.NewCell(4, 25, 0), false)
		return err
	})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
