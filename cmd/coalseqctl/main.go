package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"coalseq/internal/newick"
	"coalseq/internal/storage"
	"coalseq/internal/treeseq"
	coalapi "coalseq/pkg/coalseq"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "import":
		return runImport(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "info":
		return runInfo(ctx, args[1:])
	case "records":
		return runRecords(ctx, args[1:])
	case "newick":
		return runNewick(ctx, args[1:])
	case "trees":
		return runTrees(ctx, args[1:])
	case "haplotypes":
		return runHaplotypes(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func storeFlags(fs *flag.FlagSet) (*string, *string) {
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "coalseq.db", "sqlite database path")
	return storeKind, dbPath
}

func newClient(ctx context.Context, storeKind, dbPath string) (*coalapi.Client, error) {
	return coalapi.NewClient(ctx, coalapi.Options{StoreKind: storeKind, DBPath: dbPath})
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	in := fs.String("in", "", "container JSON file produced by the simulator")
	id := fs.String("id", "", "identifier to store the tree sequence under")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *id == "" {
		return usageError("import requires -in and -id")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Import(ctx, *id, data); err != nil {
		return err
	}
	fmt.Printf("imported %s (%s)\n", *id, humanize.Bytes(uint64(len(data))))
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "tree sequence identifier")
	out := fs.String("out", "", "output JSON file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("export requires -id")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	data, err := client.Export(ctx, *id)
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s (%s)\n", *id, *out, humanize.Bytes(uint64(len(data))))
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	ids, err := client.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func runInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "tree sequence identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("info requires -id")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Info(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("id            %s\n", summary.ID)
	fmt.Printf("sample size   %d\n", summary.SampleSize)
	fmt.Printf("loci          %s\n", humanize.Comma(int64(summary.NumLoci)))
	fmt.Printf("records       %s\n", humanize.Comma(int64(summary.NumRecords)))
	fmt.Printf("breakpoints   %s\n", humanize.Comma(int64(summary.NumBreakpoints)))
	fmt.Printf("parameters    %s\n", summary.ParametersJSON)
	fmt.Printf("environment   %s\n", summary.EnvironmentJSON)
	return nil
}

func runRecords(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("records", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "tree sequence identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("records requires -id")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	return client.Records(ctx, *id, func(r treeseq.Record) error {
		_, err := fmt.Printf("%d\t%d\t(%d,%d)\t%d\t%g\n",
			r.Left, r.Right, r.Children[0], r.Children[1], r.Parent, r.Time)
		return err
	})
}

func runNewick(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("newick", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "tree sequence identifier")
	precision := fs.Int("precision", newick.DefaultPrecision, "branch length decimal places")
	allBreaks := fs.Bool("all-breaks", false, "emit one tree per breakpoint segment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("newick requires -id")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	return client.Newick(ctx, *id, *precision, *allBreaks, func(length uint32, tree string) error {
		_, err := fmt.Printf("%d\t%s\n", length, tree)
		return err
	})
}

func runTrees(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trees", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "tree sequence identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("trees requires -id")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	return client.Trees(ctx, *id, func(t treeseq.Tree) error {
		_, err := fmt.Printf("%d\t%v\t%v\n", t.Length, t.Parent, t.Time)
		return err
	})
}

func runHaplotypes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("haplotypes", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "tree sequence identifier")
	mu := fs.Float64("mu", 0, "scaled mutation rate")
	seed := fs.Uint64("seed", 0, "random seed (0 draws a fresh one)")
	maxSites := fs.Int("max-sites", 0, "segregating site cap (0 = unbounded)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("haplotypes requires -id")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	result, err := client.Haplotypes(ctx, *id, *mu, *seed, *maxSites)
	if err != nil {
		return err
	}
	for _, h := range result.Haplotypes {
		fmt.Println(h)
	}
	fmt.Fprintf(os.Stderr, "seed=%d segregating_sites=%d\n", result.Seed, result.NumSites)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: coalseqctl <import|export|list|info|records|newick|trees|haplotypes> [flags]", msg)
}
