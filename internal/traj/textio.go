package traj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trajectory/internal/geom"
	"github.com/banshee-data/trajectory/internal/monitoring"
)

// FormatOptions is the bitmask controlling the text layout. The numeric
// values are part of the file format.
type FormatOptions uint

const (
	OneLine              FormatOptions = 1 << iota // no newlines; header and points separated by spaces
	NoHeader                                       // omit "<points> <dof> <options>"
	IncludeTimestamps                              // leading time per point
	IncludeBaseTransform                           // tx ty tz qw qx qy qz after the configuration
	IncludeVelocities                              // qdot, plus base linear/angular velocity with IncludeBaseTransform
)

// AllFields writes every per-point field.
const AllFields = IncludeTimestamps | IncludeBaseTransform | IncludeVelocities

// Header is the optional first line of a trajectory file.
type Header struct {
	Count   int
	DOF     int
	Options FormatOptions
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write serialises the trajectory in the text format selected by opts.
func (t *Trajectory) Write(w io.Writer, opts FormatOptions) error {
	bw := bufio.NewWriter(w)
	sep := "\n"
	if opts&OneLine != 0 {
		sep = " "
	}
	field := func(v float64) {
		bw.WriteString(formatFloat(v))
		bw.WriteByte(' ')
	}

	if opts&NoHeader == 0 {
		fmt.Fprintf(bw, "%s%d %d %d%s", sep, len(t.points), t.dof, uint(opts), sep)
	}
	for _, p := range t.points {
		if opts&IncludeTimestamps != 0 {
			field(p.Time)
		}
		for _, q := range p.Q {
			field(q)
		}
		if opts&IncludeBaseTransform != 0 {
			for _, v := range []float64{
				p.Pose.Trans.X, p.Pose.Trans.Y, p.Pose.Trans.Z,
				p.Pose.Rot.Real, p.Pose.Rot.Imag, p.Pose.Rot.Jmag, p.Pose.Rot.Kmag,
			} {
				field(v)
			}
		}
		if opts&IncludeVelocities != 0 {
			qdot := p.Qdot
			if len(qdot) != t.dof {
				qdot = make([]float64, t.dof)
			}
			for _, v := range qdot {
				field(v)
			}
			if opts&IncludeBaseTransform != 0 {
				for _, v := range []float64{
					p.LinearVel.X, p.LinearVel.Y, p.LinearVel.Z,
					p.AngularVel.X, p.AngularVel.Y, p.AngularVel.Z,
				} {
					field(v)
				}
			}
		}
		bw.WriteString(sep)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: write trajectory: %v", ErrIOFailure, err)
	}
	return nil
}

// WriteFile writes the trajectory to path.
func (t *Trajectory) WriteFile(path string, opts FormatOptions) error {
	f, err := os.Create(path)
	if err != nil {
		monitoring.Logf("trajectory: failed to write to file %s: %v", path, err)
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := t.Write(f, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIOFailure, path, err)
	}
	return nil
}

// Read parses a trajectory with a header. Points without a base transform
// take ref. Linear timing is re-derived after loading: stored timestamps are
// used verbatim when present, otherwise provider supplies limits for
// auto-timing.
func Read(r io.Reader, ref geom.Pose, provider LimitProvider) (*Trajectory, error) {
	tok := newTokenizer(r)
	var h Header
	var err error
	if h.Count, err = tok.nextInt(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if h.DOF, err = tok.nextInt(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	opts, err := tok.nextInt()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if opts < 0 {
		return nil, fmt.Errorf("%w: negative options %d", ErrInvalidInput, opts)
	}
	h.Options = FormatOptions(opts)
	return readPoints(tok, h, ref, provider)
}

// ReadWithHeader parses a stream written with NoHeader, using h for the
// point count, DOF and options.
func ReadWithHeader(r io.Reader, h Header, ref geom.Pose, provider LimitProvider) (*Trajectory, error) {
	return readPoints(newTokenizer(r), h, ref, provider)
}

// ReadFile opens path and calls Read.
func ReadFile(path string, ref geom.Pose, provider LimitProvider) (*Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		monitoring.Logf("trajectory: failed to read file %s: %v", path, err)
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	defer f.Close()
	return Read(f, ref, provider)
}

func readPoints(tok *tokenizer, h Header, ref geom.Pose, provider LimitProvider) (*Trajectory, error) {
	if h.DOF <= 0 || h.Count < 0 {
		return nil, fmt.Errorf("%w: header declares %d points of %d DOF", ErrInvalidInput, h.Count, h.DOF)
	}
	if ref.IsZero() {
		ref = geom.Identity()
	}

	t := New(h.DOF)
	t.points = make([]Waypoint, 0, min(h.Count, maxPrealloc))
	for i := 0; i < h.Count; i++ {
		t.points = append(t.points, Waypoint{})
		p := &t.points[i]
		var err error
		if h.Options&IncludeTimestamps != 0 {
			if p.Time, err = tok.nextFloat(); err != nil {
				return nil, fmt.Errorf("point %d time: %w", i, err)
			}
		}
		if p.Q, err = tok.nextFloats(h.DOF); err != nil {
			return nil, fmt.Errorf("point %d configuration: %w", i, err)
		}
		p.Pose = ref
		if h.Options&IncludeBaseTransform != 0 {
			v, err := tok.nextFloats(7)
			if err != nil {
				return nil, fmt.Errorf("point %d transform: %w", i, err)
			}
			p.Pose = geom.Pose{
				Trans: r3.Vec{X: v[0], Y: v[1], Z: v[2]},
				Rot:   quat.Number{Real: v[3], Imag: v[4], Jmag: v[5], Kmag: v[6]},
			}
		}
		if h.Options&IncludeVelocities != 0 {
			if p.Qdot, err = tok.nextFloats(h.DOF); err != nil {
				return nil, fmt.Errorf("point %d velocity: %w", i, err)
			}
			if h.Options&IncludeBaseTransform != 0 {
				v, err := tok.nextFloats(6)
				if err != nil {
					return nil, fmt.Errorf("point %d base velocity: %w", i, err)
				}
				p.LinearVel = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
				p.AngularVel = r3.Vec{X: v[3], Y: v[4], Z: v[5]}
			}
		}
	}
	if len(t.points) == 0 {
		return t, nil
	}

	opts := ComputeOptions{Method: Linear, AutoTiming: h.Options&IncludeTimestamps == 0}
	if err := t.Compute(provider, opts); err != nil {
		return nil, fmt.Errorf("time loaded trajectory: %w", err)
	}
	return t, nil
}

// maxPrealloc caps slice capacity taken from header counts.
const maxPrealloc = 1024

type tokenizer struct {
	sc *bufio.Scanner
}

func newTokenizer(r io.Reader) *tokenizer {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &tokenizer{sc: sc}
}

func (k *tokenizer) next() (string, error) {
	if k.sc.Scan() {
		return k.sc.Text(), nil
	}
	if err := k.sc.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return "", fmt.Errorf("%w: %v", ErrInvalidInput, io.ErrUnexpectedEOF)
}

func (k *tokenizer) nextInt() (int, error) {
	s, err := k.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, errors.Unwrap(err))
	}
	return v, nil
}

func (k *tokenizer) nextFloat() (float64, error) {
	s, err := k.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidInput, s, errors.Unwrap(err))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite value %q", ErrInvalidInput, s)
	}
	return v, nil
}

// nextFloats grows its result as tokens arrive so a lying header cannot
// force a large allocation.
func (k *tokenizer) nextFloats(n int) ([]float64, error) {
	out := make([]float64, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		v, err := k.nextFloat()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
