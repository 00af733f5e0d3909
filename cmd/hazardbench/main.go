package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"finqa/internal/hazard"
)

const (
	ProgramName = "hazardbench"
	Version     = "v0.1.0"
)

type analyzeCmd struct {
	Image  string `arg:"positional,required" help:"path to the factory image"`
	Output string `arg:"--output,-o" help:"write the analysis result to a json file"`
}

type runCmd struct {
	Images []string `arg:"positional,required" help:"paths to exactly five factory images"`
	Output string   `arg:"--output,-o" default:"benchmark_results.json" help:"results output file"`
}

type quickCmd struct {
	Image  string `arg:"positional,required" help:"path to the factory image"`
	Output string `arg:"--output,-o" default:"single_test_result.json" help:"result output file"`
}

type args struct {
	Analyze *analyzeCmd `arg:"subcommand:analyze" help:"single-shot hazard analysis of one image"`
	Run     *runCmd     `arg:"subcommand:run" help:"run the full five-image interactive benchmark"`
	Quick   *quickCmd   `arg:"subcommand:quick" help:"run a single interactive benchmark test"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: ProgramName}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	var cmd func(any) error

	switch p.Subcommand().(type) {
	case *analyzeCmd:
		cmd = runAnalyze
	case *runCmd:
		cmd = runFull
	case *quickCmd:
		cmd = runQuick
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err := cmd(p.Subcommand()); err != nil {
		log.Fatal(err)
	}
}

func runAnalyze(cmdArgs any) error {
	cArgs := cmdArgs.(*analyzeCmd)

	analyzer, err := hazard.NewDefaultAnalyzer()
	if err != nil {
		return err
	}

	_, err = analyzer.Run(context.Background(), cArgs.Image, cArgs.Output)
	return err
}

func runFull(cmdArgs any) error {
	cArgs := cmdArgs.(*runCmd)

	benchmark, err := hazard.NewDefaultBenchmark()
	if err != nil {
		return err
	}

	results, err := benchmark.RunFull(context.Background(), cArgs.Images)
	if err != nil {
		return err
	}

	if err := hazard.WriteJSONFile(cArgs.Output, results); err != nil {
		return err
	}
	fmt.Printf("\nResults saved to: %s\n", cArgs.Output)
	return nil
}

func runQuick(cmdArgs any) error {
	cArgs := cmdArgs.(*quickCmd)

	benchmark, err := hazard.NewDefaultBenchmark()
	if err != nil {
		return err
	}

	result, err := benchmark.RunSingle(context.Background(), cArgs.Image, 1)
	if err != nil {
		return err
	}

	if err := hazard.WriteJSONFile(cArgs.Output, result); err != nil {
		return err
	}
	fmt.Printf("\nResult saved to: %s\n", cArgs.Output)
	return nil
}
