package trajstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory/internal/traj"
)

type limits struct{}

func (limits) DOF(bool) int { return 2 }
func (limits) Limits(bool) traj.Limits {
	return traj.Limits{MaxVel: []float64{1, 0.5}, MaxAccel: []float64{2, 1}}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trajectories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func computed(t *testing.T, m traj.Interpolation) *traj.Trajectory {
	t.Helper()
	tr := traj.New(2)
	require.NoError(t, tr.LoadRaw([]float64{0, 0, 1, 0.5, 0.5, 1, 2, 1.5}, 4))
	require.NoError(t, tr.Compute(limits{}, traj.ComputeOptions{Method: m, AutoTiming: true}))
	return tr
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := openStore(t)
	version, dirty, err := schemaVersion(s.db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Reopening an up-to-date database is a no-op.
	require.NoError(t, migrateUp(s.db))
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, m := range []traj.Interpolation{traj.Linear, traj.Cubic, traj.Quintic} {
		t.Run(m.String(), func(t *testing.T) {
			orig := computed(t, m)
			rec, err := s.Put(ctx, "pick-"+m.String(), "bin to tray", orig)
			require.NoError(t, err)
			assert.NotEmpty(t, rec.ID)
			assert.Equal(t, 2, rec.DOF)
			assert.Equal(t, 4, rec.Points)
			assert.Equal(t, m.String(), rec.Interpolation)
			assert.InDelta(t, orig.TotalDuration(), rec.DurationSecs, 1e-12)

			gotRec, got, err := s.Get(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec, gotRec)
			assert.Equal(t, m, got.Method())
			if diff := cmp.Diff(orig.Waypoints(), got.Waypoints(), cmpopts.EquateApprox(0, 1e-9), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("waypoints mismatch (-want +got):\n%s", diff)
			}

			for _, at := range []float64{0.1, orig.TotalDuration() / 2, orig.TotalDuration() - 0.1} {
				want, err := orig.SampleAt(at)
				require.NoError(t, err)
				have, err := got.SampleAt(at)
				require.NoError(t, err)
				if diff := cmp.Diff(want, have, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
					t.Errorf("sample at %v mismatch (-want +got):\n%s", at, diff)
				}
			}
		})
	}
}

func TestGetDropsQuinticEndpointAccelerations(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	orig := traj.New(2)
	require.NoError(t, orig.AppendWaypoint(traj.Waypoint{Q: []float64{0, 0}, Qddot: []float64{0.5, -0.5}}))
	require.NoError(t, orig.AppendWaypoint(traj.Waypoint{Q: []float64{1, 0.5}}))
	require.NoError(t, orig.AppendWaypoint(traj.Waypoint{Q: []float64{2, 1}, Qddot: []float64{-0.25, 0.25}}))
	require.NoError(t, orig.Compute(limits{}, traj.ComputeOptions{Method: traj.Quintic, AutoTiming: true}))
	require.Equal(t, []float64{0.5, -0.5}, orig.Waypoint(0).Qddot)

	rec, err := s.Put(ctx, "accel", "", orig)
	require.NoError(t, err)
	_, got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0}, got.Waypoint(0).Qddot)
	assert.Equal(t, []float64{0, 0}, got.Waypoint(2).Qddot)
	assert.InDelta(t, orig.TotalDuration(), got.TotalDuration(), 1e-9)
	for i := 0; i < got.Len(); i++ {
		assert.InDeltaSlice(t, orig.Waypoint(i).Q, got.Waypoint(i).Q, 1e-9)
		assert.InDeltaSlice(t, orig.Waypoint(i).Qdot, got.Waypoint(i).Qdot, 1e-9)
	}
}

func TestPutRejectsUncomputed(t *testing.T) {
	tr := traj.New(1)
	require.NoError(t, tr.LoadRaw([]float64{0, 1}, 2))
	_, err := openStore(t).Put(context.Background(), "raw", "", tr)
	assert.ErrorIs(t, err, traj.ErrInvalidInput)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	a, err := s.Put(ctx, "approach", "", computed(t, traj.Linear))
	require.NoError(t, err)
	b, err := s.Put(ctx, "retract", "", computed(t, traj.Cubic))
	require.NoError(t, err)
	_, err = s.Put(ctx, "approach", "second take", computed(t, traj.Cubic))
	require.NoError(t, err)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, a.ID)
	assert.Contains(t, ids, b.ID)

	approaches, err := s.List(ctx, "approach")
	require.NoError(t, err)
	require.Len(t, approaches, 2)
	descriptions := []string{approaches[0].Description, approaches[1].Description}
	assert.ElementsMatch(t, []string{"", "second take"}, descriptions)

	require.NoError(t, s.Delete(ctx, b.ID))
	assert.ErrorIs(t, s.Delete(ctx, b.ID), ErrNotFound)
	_, _, err = s.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err = s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
