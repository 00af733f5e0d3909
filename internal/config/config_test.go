package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"finqa/internal/config"
	"finqa/internal/executor"
	"finqa/internal/registry"
)

func TestLoadMissingFile(t *testing.T) {
	conf, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := config.Default()
	if conf.Server.ListenPort != def.Server.ListenPort {
		t.Errorf("got port %d, expected default %d", conf.Server.ListenPort, def.Server.ListenPort)
	}
	if conf.Transport.Addr() != "localhost:6379" {
		t.Errorf("got transport addr %q", conf.Transport.Addr())
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  listen_port: 9090\nworkflows: custom.yaml\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	conf, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.Server.ListenPort != 9090 {
		t.Errorf("got port %d, expected 9090", conf.Server.ListenPort)
	}
	if conf.WorkflowsPath != "custom.yaml" {
		t.Errorf("got workflows path %q", conf.WorkflowsPath)
	}
	// omitted sections keep their defaults
	if conf.Worker.Concurrency != 10 {
		t.Errorf("got concurrency %d, expected default 10", conf.Worker.Concurrency)
	}
}

type configStubExecutor struct {
	lastArgs map[string]any
}

func (e *configStubExecutor) Execute(ctx context.Context, p *executor.ExecutorParams) *executor.ExecutorResult {
	e.lastArgs = p.Args
	return &executor.ExecutorResult{Name: "stub"}
}

func TestParseWorkflows(t *testing.T) {
	// the registry is process global, keep the name unique
	name := "test.ConfigExecutor"
	stub := &configStubExecutor{}
	if err := registry.RegisterExecutor(name, stub); err != nil {
		t.Fatal(err)
	}

	wc := config.WorkflowConfig{
		Workflows: map[string]config.Workflow{
			"wf": {
				Identifier:     "wf",
				CollectionName: "docs",
				Nodes: []config.WorkflowNode{
					{Module: name, Operator: "op", Args: map[string]any{"limit": uint64(3)}},
				},
			},
		},
	}

	workflows, err := config.ParseWorkflows(wc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wf, ok := workflows["wf"]
	if !ok {
		t.Fatal("workflow 'wf' not parsed")
	}
	if wf.Identifier() != "wf" {
		t.Errorf("got identifier %q", wf.Identifier())
	}

	params := executor.NewExecutorParams("id", "q")
	if res := wf.Execute(context.Background(), params); res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if stub.lastArgs["collection_name"] != "docs" {
		t.Errorf("got collection_name %v, expected 'docs'", stub.lastArgs["collection_name"])
	}
	if stub.lastArgs["limit"] != uint64(3) {
		t.Errorf("got limit %v, expected node args passed through", stub.lastArgs["limit"])
	}
}

func TestParseWorkflowsDefaultCollection(t *testing.T) {
	name := "test.ConfigExecutorDefaultCollection"
	stub := &configStubExecutor{}
	if err := registry.RegisterExecutor(name, stub); err != nil {
		t.Fatal(err)
	}

	wc := config.WorkflowConfig{
		Workflows: map[string]config.Workflow{
			"wf": {
				Identifier: "wf",
				Nodes:      []config.WorkflowNode{{Module: name}},
			},
		},
	}

	workflows, err := config.ParseWorkflows(wc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params := executor.NewExecutorParams("id", "q")
	workflows["wf"].Execute(context.Background(), params)
	if stub.lastArgs["collection_name"] != "default" {
		t.Errorf("got collection_name %v, expected 'default'", stub.lastArgs["collection_name"])
	}
}

func TestParseWorkflowsUnknownExecutor(t *testing.T) {
	wc := config.WorkflowConfig{
		Workflows: map[string]config.Workflow{
			"wf": {
				Identifier: "wf",
				Nodes:      []config.WorkflowNode{{Module: "test.NotRegistered"}},
			},
		},
	}

	_, err := config.ParseWorkflows(wc)
	if !errors.Is(err, config.ErrInvalidExecutor) {
		t.Errorf("got error %v, expected ErrInvalidExecutor", err)
	}
}

func TestParseWorkflowsEmptyNodes(t *testing.T) {
	wc := config.WorkflowConfig{
		Workflows: map[string]config.Workflow{
			"wf": {Identifier: "wf"},
		},
	}

	_, err := config.ParseWorkflows(wc)
	if !errors.Is(err, config.ErrNodeMissingChildren) {
		t.Errorf("got error %v, expected ErrNodeMissingChildren", err)
	}
}
