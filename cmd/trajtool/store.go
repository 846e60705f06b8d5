package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/trajectory/internal/trajstore"
)

func handleStore(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: store needs a subcommand: put, get, list or rm", errUsage)
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("store "+sub, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var ef engineFlags
	ef.register(fs)
	dbPath := fs.String("db", "", "trajectory library (default: config store_path)")
	name := fs.String("name", "", "trajectory name (put; filter for list)")
	desc := fs.String("desc", "", "description (put)")
	in := fs.String("in", "", "trajectory file to store (put)")
	out := fs.String("out", "", "output file (get; default stdout)")
	format := fs.String("format", "all", "output format options (get)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	cfg, err := ef.load()
	if err != nil {
		return err
	}
	path := *dbPath
	if path == "" {
		path = cfg.GetStorePath()
	}
	store, err := trajstore.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	switch sub {
	case "put":
		return storePut(ctx, store, &ef, *name, *desc, *in, stdout)
	case "get":
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: store get <id>", errUsage)
		}
		opts, err := parseFormat(*format)
		if err != nil {
			return err
		}
		_, t, err := store.Get(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		return writeOutput(t, *out, opts, stdout)
	case "list":
		return storeList(ctx, store, *name, stdout)
	case "rm":
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: store rm <id>", errUsage)
		}
		return store.Delete(ctx, fs.Arg(0))
	default:
		return fmt.Errorf("%w: unknown store subcommand %q", errUsage, sub)
	}
}

func storePut(ctx context.Context, store *trajstore.Store, ef *engineFlags, name, desc, in string, stdout io.Writer) error {
	if name == "" {
		return fmt.Errorf("%w: store put needs -name", errUsage)
	}
	provider, err := ef.provider()
	if err != nil {
		return err
	}
	t, err := loadTrajectory(in, ef.method, provider)
	if err != nil {
		return err
	}
	rec, err := store.Put(ctx, name, desc, t)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, rec.ID)
	return nil
}

func storeList(ctx context.Context, store *trajstore.Store, name string, stdout io.Writer) error {
	recs, err := store.List(ctx, name)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOF\tPOINTS\tMETHOD\tDURATION\tCREATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%.3fs\t%s\n",
			r.ID, r.Name, r.DOF, r.Points, r.Interpolation, r.DurationSecs,
			time.Unix(0, r.CreatedAtNs).UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}
