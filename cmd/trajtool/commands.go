package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/trajectory/internal/config"
	"github.com/banshee-data/trajectory/internal/geom"
	"github.com/banshee-data/trajectory/internal/monitoring"
	"github.com/banshee-data/trajectory/internal/playback"
	"github.com/banshee-data/trajectory/internal/serialport"
	"github.com/banshee-data/trajectory/internal/timeutil"
	"github.com/banshee-data/trajectory/internal/traj"
)

// engineFlags are the timing flags shared by every command that computes.
type engineFlags struct {
	configPath string
	limitsPath string
	method     string
	velMult    float64
	active     bool
	verbose    bool
}

func (e *engineFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&e.configPath, "config", "", "engine config JSON")
	fs.StringVar(&e.limitsPath, "limits", "", "robot limits JSON")
	fs.StringVar(&e.method, "method", "", "interpolation: linear, cubic or quintic")
	fs.Float64Var(&e.velMult, "vel-mult", 0, "velocity limit multiplier (0 keeps the config value)")
	fs.BoolVar(&e.active, "active", false, "use the active DOF subset and base transform limits")
	fs.BoolVar(&e.verbose, "verbose", false, "emit debug diagnostics")
}

// load resolves the engine config with command-line overrides applied.
func (e *engineFlags) load() (*config.EngineConfig, error) {
	monitoring.SetVerbose(e.verbose)
	cfg := config.EmptyEngineConfig()
	if e.configPath != "" {
		var err error
		if cfg, err = config.LoadEngineConfig(e.configPath); err != nil {
			return nil, err
		}
	}
	if e.method != "" {
		m := e.method
		cfg.Interpolation = &m
	}
	if e.velMult != 0 {
		v := e.velMult
		cfg.VelocityMultiplier = &v
	}
	if e.active {
		a := true
		cfg.ActiveDOFs = &a
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// provider returns nil when no limits file was given.
func (e *engineFlags) provider() (traj.LimitProvider, error) {
	if e.limitsPath == "" {
		return nil, nil
	}
	rl, err := config.LoadRobotLimits(e.limitsPath)
	if err != nil {
		return nil, err
	}
	return rl, nil
}

func parseFormat(s string) (traj.FormatOptions, error) {
	var opts traj.FormatOptions
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "":
		case "oneline":
			opts |= traj.OneLine
		case "noheader":
			opts |= traj.NoHeader
		case "timestamps":
			opts |= traj.IncludeTimestamps
		case "transform":
			opts |= traj.IncludeBaseTransform
		case "velocities":
			opts |= traj.IncludeVelocities
		case "all":
			opts |= traj.AllFields
		default:
			return 0, fmt.Errorf("%w: unknown format option %q", errUsage, name)
		}
	}
	return opts, nil
}

// readRawPath parses whitespace-separated configurations, dof values each.
func readRawPath(r io.Reader, dof int) (*traj.Trajectory, error) {
	if dof <= 0 {
		return nil, fmt.Errorf("%w: -dof must be positive", errUsage)
	}
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	var values []float64
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("raw path value %d: %w", len(values), err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read raw path: %w", err)
	}
	if len(values)%dof != 0 {
		return nil, fmt.Errorf("raw path has %d values, not a multiple of %d DOF", len(values), dof)
	}
	t := traj.New(dof)
	if err := t.LoadRaw(values, len(values)/dof); err != nil {
		return nil, err
	}
	return t, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// writeOutput writes t to path, or to stdout when path is empty.
func writeOutput(t *traj.Trajectory, path string, opts traj.FormatOptions, stdout io.Writer) error {
	if path == "" || path == "-" {
		return t.Write(stdout, opts)
	}
	return t.WriteFile(path, opts)
}

// loadTrajectory reads a trajectory file and, when method is set, re-derives
// it with that interpolation keeping the stored timing.
func loadTrajectory(path, method string, provider traj.LimitProvider) (*traj.Trajectory, error) {
	var t *traj.Trajectory
	var err error
	if path == "" || path == "-" {
		t, err = traj.Read(os.Stdin, geom.Identity(), provider)
	} else {
		t, err = traj.ReadFile(path, geom.Identity(), provider)
	}
	if err != nil {
		return nil, err
	}
	if method != "" && t.Len() > 0 {
		m, err := traj.ParseInterpolation(method)
		if err != nil {
			return nil, err
		}
		if err := t.Compute(provider, traj.ComputeOptions{Method: m}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func handleTime(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("time", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var ef engineFlags
	ef.register(fs)
	dof := fs.Int("dof", 0, "configuration dimension of the raw path (required)")
	in := fs.String("in", "", "raw path file, whitespace separated (default stdin)")
	out := fs.String("out", "", "output trajectory file (default stdout)")
	format := fs.String("format", "all", "output format options")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := ef.load()
	if err != nil {
		return err
	}
	provider, err := ef.provider()
	if err != nil {
		return err
	}
	opts, err := parseFormat(*format)
	if err != nil {
		return err
	}

	r, err := openInput(*in)
	if err != nil {
		return err
	}
	defer r.Close()
	t, err := readRawPath(r, *dof)
	if err != nil {
		return err
	}
	if err := t.Compute(provider, cfg.ComputeOptions()); err != nil {
		return err
	}
	if ok, violations := t.Validate(); !ok {
		fmt.Fprintf(stderr, "warning: %d limit violations\n", len(violations))
	}
	return writeOutput(t, *out, opts, stdout)
}

func handleSample(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var ef engineFlags
	ef.register(fs)
	in := fs.String("in", "", "trajectory file (default stdin)")
	period := fs.Duration("period", 100*time.Millisecond, "sample period")
	velocities := fs.Bool("velocities", false, "include joint velocities")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *period <= 0 {
		return fmt.Errorf("%w: -period must be positive", errUsage)
	}
	if _, err := ef.load(); err != nil {
		return err
	}
	provider, err := ef.provider()
	if err != nil {
		return err
	}
	t, err := loadTrajectory(*in, ef.method, provider)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(stdout)
	total := t.TotalDuration()
	for k := 0; ; k++ {
		at := float64(k) * period.Seconds()
		if at > total {
			at = total
		}
		s, err := t.SampleAt(at)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%.6f", at)
		for _, q := range s.Q {
			fmt.Fprintf(w, " %.6f", q)
		}
		if *velocities {
			for _, v := range s.Qdot {
				fmt.Fprintf(w, " %.6f", v)
			}
		}
		w.WriteByte('\n')
		if at >= total {
			break
		}
	}
	return w.Flush()
}

func handleValidate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var ef engineFlags
	ef.register(fs)
	in := fs.String("in", "", "trajectory file (default stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ef.limitsPath == "" {
		return fmt.Errorf("%w: -limits is required", errUsage)
	}
	cfg, err := ef.load()
	if err != nil {
		return err
	}
	provider, err := ef.provider()
	if err != nil {
		return err
	}
	t, err := loadTrajectory(*in, ef.method, provider)
	if err != nil {
		return err
	}
	active := cfg.GetActiveDOFs()
	if provider.DOF(active) != t.DOF() {
		return fmt.Errorf("%w: limits have %d DOF, trajectory has %d", traj.ErrDimensionMismatch, provider.DOF(active), t.DOF())
	}
	if err := t.SetLimits(provider.Limits(active)); err != nil {
		return err
	}

	ok, violations := t.Validate()
	for _, v := range violations {
		fmt.Fprintln(stdout, v)
	}
	if !ok {
		return fmt.Errorf("%d limit violations", len(violations))
	}
	fmt.Fprintf(stdout, "ok: %d waypoints within limits\n", t.Len())
	return nil
}

func handleConvert(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var ef engineFlags
	ef.register(fs)
	in := fs.String("in", "", "trajectory file (default stdin)")
	out := fs.String("out", "", "output file (default stdout)")
	format := fs.String("format", "all", "output format options")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := ef.load(); err != nil {
		return err
	}
	provider, err := ef.provider()
	if err != nil {
		return err
	}
	opts, err := parseFormat(*format)
	if err != nil {
		return err
	}
	t, err := loadTrajectory(*in, ef.method, provider)
	if err != nil {
		return err
	}
	return writeOutput(t, *out, opts, stdout)
}

func handlePlay(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var ef engineFlags
	ef.register(fs)
	in := fs.String("in", "", "trajectory file (default stdin)")
	device := fs.String("device", "", "serial device (default: config serial.device, else stdout)")
	baud := fs.Int("baud", 0, "serial baud rate (default: config or 115200)")
	period := fs.Duration("period", 0, "setpoint period (default: config sample_period)")
	velocities := fs.Bool("velocities", false, "append joint velocities to each setpoint")
	list := fs.Bool("list", false, "list serial ports and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		ports, err := serialport.List()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Fprintln(stdout, p)
		}
		return nil
	}

	cfg, err := ef.load()
	if err != nil {
		return err
	}
	provider, err := ef.provider()
	if err != nil {
		return err
	}
	t, err := loadTrajectory(*in, ef.method, provider)
	if err != nil {
		return err
	}

	p := &playback.Player{
		Source:     traj.NewShared(t),
		Out:        stdout,
		Period:     cfg.GetSamplePeriod(),
		Clock:      timeutil.RealClock{},
		Velocities: *velocities,
	}
	if *period > 0 {
		p.Period = *period
	}

	sc := cfg.GetSerial()
	if *device != "" {
		sc.Device = *device
	}
	if *baud > 0 {
		sc.BaudRate = *baud
	}
	if sc.Device != "" {
		port, err := serialport.Open(sc.Device, serialport.PortOptions{
			BaudRate: sc.BaudRate,
			DataBits: sc.DataBits,
			StopBits: sc.StopBits,
			Parity:   sc.Parity,
		})
		if err != nil {
			return err
		}
		defer port.Close()
		p.Out = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	n, err := p.Run(ctx)
	fmt.Fprintf(stderr, "%d setpoints sent\n", n)
	return err
}
