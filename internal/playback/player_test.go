package playback

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trajectory/internal/timeutil"
	"github.com/banshee-data/trajectory/internal/traj"
)

type unitLimits struct{ dof int }

func (u unitLimits) DOF(bool) int { return u.dof }
func (u unitLimits) Limits(bool) traj.Limits {
	v := make([]float64, u.dof)
	for i := range v {
		v[i] = 1
	}
	return traj.Limits{MaxVel: v, AffineTranslationVel: r3.Vec{X: 1, Y: 1, Z: 1}}
}

func sharedLine(t *testing.T, values ...float64) *traj.Shared {
	t.Helper()
	tr := traj.New(1)
	require.NoError(t, tr.LoadRaw(values, len(values)))
	require.NoError(t, tr.Compute(unitLimits{dof: 1}, traj.ComputeOptions{AutoTiming: true}))
	return traj.NewShared(tr)
}

type result struct {
	n   int
	err error
}

// drive advances the mock clock one period at a time until Run returns.
func drive(t *testing.T, clock *timeutil.MockClock, period time.Duration, done <-chan result) result {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-done:
			return r
		case <-deadline:
			t.Fatal("playback did not finish")
			return result{}
		default:
			clock.Advance(period)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestPlayerStreamsFixedRate(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var out bytes.Buffer
	p := &Player{
		Source: sharedLine(t, 0, 1),
		Out:    &out,
		Period: 250 * time.Millisecond,
		Clock:  clock,
	}

	done := make(chan result, 1)
	go func() {
		n, err := p.Run(context.Background())
		done <- result{n, err}
	}()
	r := drive(t, clock, p.Period, done)
	require.NoError(t, r.err)
	assert.Equal(t, 5, r.n)
	assert.Equal(t, strings.Join([]string{
		"0.000000 0.000000",
		"0.250000 0.250000",
		"0.500000 0.500000",
		"0.750000 0.750000",
		"1.000000 1.000000",
	}, "\n")+"\n", out.String())
}

func TestPlayerFinalSetpointOffGrid(t *testing.T) {
	clock := timeutil.NewMockClock(time.Time{})
	var out bytes.Buffer
	p := &Player{
		Source:     sharedLine(t, 0, 0.5),
		Out:        &out,
		Period:     200 * time.Millisecond,
		Clock:      clock,
		Velocities: true,
	}

	done := make(chan result, 1)
	go func() {
		n, err := p.Run(context.Background())
		done <- result{n, err}
	}()
	r := drive(t, clock, p.Period, done)
	require.NoError(t, r.err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "0.200000 0.200000 1.000000", lines[1])
	assert.Equal(t, "0.500000 0.500000 0.000000", lines[3])
}

func TestPlayerCancel(t *testing.T) {
	clock := timeutil.NewMockClock(time.Time{})
	var out bytes.Buffer
	p := &Player{
		Source: sharedLine(t, 0, 10),
		Out:    &out,
		Period: time.Second,
		Clock:  clock,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan result, 1)
	go func() {
		n, err := p.Run(ctx)
		done <- result{n, err}
	}()
	require.Eventually(t, func() bool { return clock.ActiveTickers() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case r := <-done:
		assert.ErrorIs(t, r.err, context.Canceled)
		assert.GreaterOrEqual(t, r.n, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("Run ignored cancellation")
	}
	assert.Equal(t, 0, clock.ActiveTickers())
}

func TestPlayerErrors(t *testing.T) {
	_, err := (&Player{Out: &bytes.Buffer{}, Period: time.Second}).Run(context.Background())
	assert.Error(t, err)

	_, err = (&Player{Source: sharedLine(t, 0, 1), Out: &bytes.Buffer{}}).Run(context.Background())
	assert.ErrorContains(t, err, "period must be positive")

	empty := traj.NewShared(traj.New(1))
	_, err = (&Player{Source: empty, Out: &bytes.Buffer{}, Period: time.Second, Clock: timeutil.NewMockClock(time.Time{})}).Run(context.Background())
	assert.ErrorIs(t, err, traj.ErrEmptyTrajectory)

	_, err = (&Player{Source: sharedLine(t, 0, 1), Out: brokenWriter{}, Period: time.Second, Clock: timeutil.NewMockClock(time.Time{})}).Run(context.Background())
	assert.ErrorContains(t, err, "write setpoint")
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("link down") }
