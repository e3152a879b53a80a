package edit

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gardener/internal/storetest"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// TestRandomEditsKeepInvariants replays random edit sequences over a seeded
// forest and validates the store after every committed edit. Frames are
// drawn so that every track keeps contiguous cells: integrations only
// happen where the first track covers or ends just before the frame.
func TestRandomEditsKeepInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("long running")
	}
	for seed := uint64(1); seed <= 4; seed++ {
		t.Run("", func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, 42))
			store := storetest.Open(t)
			tracks := append(storetest.Extended(),
				storetest.Track(6, types.NoParent, 6, 0, 30),
				storetest.Track(7, 6, 6, 31, 60),
				storetest.Track(8, 6, 6, 31, 44),
			)
			storetest.Seed(t, store, tracks, storetest.CellsFor(tracks))
			ed := NewEditor(store)

			for step := 0; step < 60; step++ {
				err := randomEdit(ed, rng, storetest.Tracks(t, store))
				if errors.Is(err, types.ErrInvalidArgument) || errors.Is(err, errSkip) {
					continue
				}
				require.NoError(t, err, "step %d", step)
				requireValid(t, store)
			}
		})
	}
}

var errSkip = errors.New("no eligible edit")

func randomEdit(ed *Editor, rng *rand.Rand, tracks map[int64]types.Track) error {
	if len(tracks) < 2 {
		return errSkip
	}
	ids := make([]int64, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	pick := func() types.Track { return tracks[ids[rng.IntN(len(ids))]] }
	ctx := context.Background()

	switch rng.IntN(6) {
	case 0:
		tr := pick()
		_, err := ed.CutTrack(ctx, tr.TrackID, between(rng, tr.TBegin, tr.TEnd))
		return err
	case 1, 2:
		t1, t2 := pick(), pick()
		var eligible []int64
		for f := max(t2.TBegin, t1.TBegin+1); f <= t2.TEnd; f++ {
			if f <= t1.TEnd+1 {
				eligible = append(eligible, f)
			}
		}
		if len(eligible) == 0 {
			return errSkip
		}
		op := types.OperationMerge
		if rng.IntN(2) == 0 {
			op = types.OperationConnect
		}
		_, err := ed.IntegrateTracks(ctx, op, t1.TrackID, t2.TrackID, eligible[rng.IntN(len(eligible))])
		return err
	case 3:
		_, err := ed.DeleteTrack(ctx, pick().TrackID)
		return err
	case 4:
		tr := pick()
		frame := tr.TBegin
		if rng.IntN(2) == 0 {
			frame = tr.TEnd
		}
		return ed.RemoveCell(ctx, tr.TrackID, frame)
	default:
		tr := pick()
		frame := tr.TEnd + 1
		if rng.IntN(2) == 0 && tr.TBegin > 0 {
			frame = tr.TBegin - 1
		}
		_, err := ed.AddCell(ctx, types.NewCell(tr.TrackID, frame, 0), true)
		return err
	}
}

func between(rng *rand.Rand, lo, hi int64) int64 {
	return lo + rng.Int64N(hi-lo+1)
}
