// Package playback streams a computed trajectory as fixed-rate setpoints.
package playback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/trajectory/internal/monitoring"
	"github.com/banshee-data/trajectory/internal/timeutil"
	"github.com/banshee-data/trajectory/internal/traj"
)

// Player samples a shared trajectory every Period and writes one setpoint
// line per tick: the sample time followed by the configuration.
type Player struct {
	Source *traj.Shared
	Out    io.Writer
	Period time.Duration
	Clock  timeutil.Clock

	// Velocities appends qdot to each line.
	Velocities bool
}

// Run streams setpoints at times 0, Period, 2*Period, ... and always finishes
// with a setpoint exactly at the total duration. Sample times follow the tick
// count, not the wall clock, so a late tick never skips a setpoint. Run
// returns the number of setpoints written.
func (p *Player) Run(ctx context.Context) (int, error) {
	if p.Source == nil || p.Source.Load() == nil {
		return 0, errors.New("playback: no trajectory")
	}
	if p.Period <= 0 {
		return 0, fmt.Errorf("playback: period must be positive, got %s", p.Period)
	}
	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	w := bufio.NewWriter(p.Out)
	started := clock.Now()
	period := p.Period.Seconds()
	count := 0
	emit := func(at float64) error {
		s, err := p.Source.SampleAt(at)
		if err != nil {
			return fmt.Errorf("sample at %f: %w", at, err)
		}
		if err := p.writeSetpoint(w, s); err != nil {
			return err
		}
		count++
		return nil
	}

	ticker := clock.NewTicker(p.Period)
	defer ticker.Stop()

	for k := 0; ; k++ {
		at := float64(k) * period
		total := p.Source.Load().TotalDuration()
		if at >= total {
			if err := emit(total); err != nil {
				return count, err
			}
			monitoring.Debugf("playback: %d setpoints over %s", count, clock.Since(started))
			return count, nil
		}
		if err := emit(at); err != nil {
			return count, err
		}

		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case <-ticker.C():
		}
	}
}

func (p *Player) writeSetpoint(w *bufio.Writer, s traj.Waypoint) error {
	fmt.Fprintf(w, "%.6f", s.Time)
	for _, q := range s.Q {
		fmt.Fprintf(w, " %.6f", q)
	}
	if p.Velocities {
		for _, v := range s.Qdot {
			fmt.Fprintf(w, " %.6f", v)
		}
	}
	w.WriteByte('\n')
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write setpoint: %w", err)
	}
	return nil
}
