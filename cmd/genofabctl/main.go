package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"genofab/internal/model"
	"genofab/internal/report"
	"genofab/internal/storage"
	api "genofab/pkg/genofab"
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
	case "generate":
		return runGenerate(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	modelsPath := fs.String("models", "", "path to the model bundle (json)")
	length := fs.Int("length", 100000, "sequence length in bases")
	window := fs.Int("window", 1000, "GC window size in bases")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	count := fs.Int("count", 1, "number of sequences to generate")
	repeatPct := fs.Float64("repeat-pct", api.DrawTarget, "target interspersed repeat fraction in percent; negative draws one")
	simplePct := fs.Float64("simple-pct", api.DrawTarget, "target simple repeat fraction in percent; negative draws one")
	fragmentation := fs.Bool("fragmentation", true, "allow nested repeat fragments")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "genofab.db", "sqlite database path")
	out := fs.String("out", "", "fasta output path (default stdout)")
	wrap := fs.Int("wrap", 60, "fasta line width")
	annotStyle := fs.String("annot-style", string(report.StyleTable), "annotation style: table|alignment|interval")
	annotOut := fs.String("annot-out", "", "annotation output path (default stdout after fasta)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelsPath == "" {
		return usageError("generate requires -models")
	}

	models, err := loadModels(*modelsPath, *seed)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}

	client, err := api.New(ctx, api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	artifacts, err := client.Generate(ctx, models, api.GenerateRequest{
		Seed:          *seed,
		Length:        *length,
		Window:        *window,
		Count:         *count,
		RepeatPct:     *repeatPct,
		SimplePct:     *simplePct,
		Fragmentation: *fragmentation,
	})
	if err != nil {
		return err
	}

	if err := emitArtifacts(artifacts, *out, *wrap, report.Style(*annotStyle), *annotOut); err != nil {
		return err
	}
	for _, artifact := range artifacts {
		fmt.Printf("generated %s length=%s repeats=%.1f%% simple=%.1f%% insertions=%s\n",
			artifact.ID,
			humanize.Comma(int64(artifact.Length)),
			artifact.RepeatPct,
			artifact.SimplePct,
			humanize.Comma(int64(len(artifact.Records))))
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "genofab.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(ctx, api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s\tseed=%d\tlength=%s\tinsertions=%s\trepeats=%.1f%%\tsimple=%.1f%%\t%s\n",
			run.ID, run.Seed,
			humanize.Comma(int64(run.Length)),
			humanize.Comma(int64(len(run.Records))),
			run.RepeatPct, run.SimplePct,
			humanize.Time(time.Unix(run.CreatedAtUnix, 0)))
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "genofab.db", "sqlite database path")
	id := fs.String("id", "", "run id")
	annotStyle := fs.String("annot-style", string(report.StyleTable), "annotation style: table|alignment|interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("show requires -id")
	}

	client, err := api.New(ctx, api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	run, err := client.Run(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("run %s seed=%d length=%s repeats=%.1f%% simple=%.1f%%\n",
		run.ID, run.Seed, humanize.Comma(int64(run.Length)), run.RepeatPct, run.SimplePct)
	return report.Render(os.Stdout, report.Style(*annotStyle), run.Records)
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "genofab.db", "sqlite database path")
	id := fs.String("id", "", "run id")
	out := fs.String("out", "", "fasta output path (default stdout)")
	wrap := fs.Int("wrap", 60, "fasta line width")
	annotStyle := fs.String("annot-style", string(report.StyleTable), "annotation style: table|alignment|interval")
	annotOut := fs.String("annot-out", "", "annotation output path (default stdout after fasta)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("export requires -id")
	}

	client, err := api.New(ctx, api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	run, err := client.Run(ctx, *id)
	if err != nil {
		return err
	}
	return emitArtifacts([]model.RunArtifact{run}, *out, *wrap, report.Style(*annotStyle), *annotOut)
}

func usageError(msg string) error {
	return errors.New(msg + `

usage: genofabctl <command> [flags]

commands:
  generate  synthesize sequences from a model bundle
  runs      list stored runs
  show      print one stored run's insertion report
  export    write a stored run as fasta plus annotations`)
}
