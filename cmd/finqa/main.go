// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"finqa/internal/config"
	"finqa/internal/executor"
	"finqa/internal/registry"
	"finqa/internal/validate"
	"finqa/internal/vector"
	"finqa/server"
	"finqa/worker"

	_ "finqa/internal/modules/indexing"
)

const (
	ProgramName   = "FinQA"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/finqa"
)

type serveCmd struct {
	Config string `arg:"--config,-c" default:"config.yaml" help:"path to the config file"`
}

type workerCmd struct {
	Config string `arg:"--config,-c" default:"config.yaml" help:"path to the config file"`
}

type indexCmd struct {
	Path       string `arg:"positional,required" help:"directory containing the pdf files to index"`
	Collection string `arg:"--collection" default:"estate_planning" help:"vector store collection name"`
	Config     string `arg:"--config,-c" default:"config.yaml" help:"path to the config file"`
	NoProgress bool   `arg:"--no-progress" help:"disable the progress bar"`
}

type validateCmd struct {
	Questions   string  `arg:"positional,required" help:"path to the questions file"`
	Endpoint    string  `arg:"--endpoint,-e" default:"http://localhost:8000" help:"prediction server address"`
	Concurrency int     `arg:"--concurrency" default:"4" help:"number of concurrent requests"`
	Rate        float64 `arg:"--rate" default:"2" help:"maximum requests per second"`
	Quiet       bool    `arg:"--quiet,-q" help:"disable the progress bar"`
}

type args struct {
	Serve    *serveCmd    `arg:"subcommand:serve" help:"start the prediction server"`
	Worker   *workerCmd   `arg:"subcommand:work" help:"start the workflow worker"`
	Index    *indexCmd    `arg:"subcommand:index" help:"index pdf documents into the vector store"`
	Validate *validateCmd `arg:"subcommand:validate" help:"score the prediction server against a question set"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: strings.ToLower(ProgramName)}, &args)
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

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	var cmd func(any) error

	switch p.Subcommand().(type) {
	case *serveCmd:
		cmd = startServer
	case *workerCmd:
		cmd = startWorker
	case *indexCmd:
		cmd = runIndex
	case *validateCmd:
		cmd = runValidate
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err := cmd(p.Subcommand()); err != nil {
		log.Fatal(err)
	}
}

func startServer(cmdArgs any) error {
	cArgs := cmdArgs.(*serveCmd)

	conf, err := config.Load(cArgs.Config)
	if err != nil {
		return err
	}

	srv := server.New(conf)
	return srv.Serve()
}

func startWorker(cmdArgs any) error {
	cArgs := cmdArgs.(*workerCmd)

	conf, err := config.Load(cArgs.Config)
	if err != nil {
		return err
	}

	w := worker.New(conf)
	if err := w.RegisterWorkflows(conf.WorkflowsPath); err != nil {
		return err
	}
	return w.Start()
}

func runIndex(cmdArgs any) error {
	cArgs := cmdArgs.(*indexCmd)

	conf, err := config.Load(cArgs.Config)
	if err != nil {
		return err
	}

	vs, err := vector.NewStore(conf.VectorStore.Type, conf.VectorStore.Host, conf.VectorStore.Port)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vs.Close()

	exec, err := registry.GetExecutor("indexing.PDF")
	if err != nil {
		return err
	}

	params := executor.NewExecutorParams(
		"cli-index",
		"",
		executor.WithVectorStore(vs),
		executor.WithArgs(map[string]any{
			"path":            cArgs.Path,
			"collection_name": cArgs.Collection,
			"chunk_size":      conf.Indexer.ChunkSize,
			"chunk_overlap":   conf.Indexer.ChunkOverlap,
			"progress":        !cArgs.NoProgress,
		}),
	)

	res := exec.Execute(context.Background(), params)
	if res.Err != nil {
		return fmt.Errorf("indexing failed: %w", res.Err)
	}

	if points, ok := executor.GetTypedResult[int](res, "points_indexed"); ok {
		fmt.Printf("indexed %d points into collection '%s'\n", points, cArgs.Collection)
	}
	return nil
}

func runValidate(cmdArgs any) error {
	cArgs := cmdArgs.(*validateCmd)

	qs, err := validate.LoadQuestions(cArgs.Questions)
	if err != nil {
		return err
	}

	v := validate.NewValidator(
		cArgs.Endpoint,
		validate.WithConcurrency(cArgs.Concurrency),
		validate.WithRateLimit(cArgs.Rate),
		validate.WithQuiet(cArgs.Quiet),
	)

	report, err := v.Run(context.Background(), qs)
	if err != nil {
		return err
	}

	report.Print()
	return nil
}
