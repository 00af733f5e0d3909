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

package registry_test

import (
	"context"
	"testing"

	"finqa/internal/executor"
	"finqa/internal/registry"
)

type noopExecutor struct{}

func (noopExecutor) Execute(ctx context.Context, p *executor.ExecutorParams) *executor.ExecutorResult {
	return &executor.ExecutorResult{Name: "noop"}
}

func TestRegisterExecutor(t *testing.T) {
	name := "test.RegisterExecutor"
	if err := registry.RegisterExecutor(name, noopExecutor{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := registry.GetExecutor(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Error("got nil executor")
	}
}

func TestRegisterExecutorDuplicate(t *testing.T) {
	name := "test.RegisterExecutorDuplicate"
	if err := registry.RegisterExecutor(name, noopExecutor{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := registry.RegisterExecutor(name, noopExecutor{}); err == nil {
		t.Error("expected error registering duplicate executor name")
	}
}

func TestGetExecutorUnknown(t *testing.T) {
	if _, err := registry.GetExecutor("test.DoesNotExist"); err == nil {
		t.Error("expected error for unknown executor name")
	}
}

func TestListExecutors(t *testing.T) {
	name := "test.ListExecutors"
	if err := registry.RegisterExecutor(name, noopExecutor{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, n := range registry.ListExecutors() {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Errorf("registered executor '%s' not listed", name)
	}
}

func TestBatchRegisterWorkflows(t *testing.T) {
	wfs := map[string]*executor.Workflow{
		"test.wf1": executor.NewWorkflow("test.wf1", "", "c", nil),
		"test.wf2": executor.NewWorkflow("test.wf2", "", "c", nil),
	}

	if err := registry.BatchRegisterWorkflows(wfs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name := range wfs {
		if _, err := registry.GetWorkflow(name); err != nil {
			t.Errorf("workflow '%s' not found after batch register", name)
		}
	}
}

func TestRegisterWorkflowDuplicate(t *testing.T) {
	name := "test.RegisterWorkflowDuplicate"
	wf := executor.NewWorkflow(name, "", "c", nil)

	if err := registry.RegisterWorkflow(name, wf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.RegisterWorkflow(name, wf); err == nil {
		t.Error("expected error registering duplicate workflow name")
	}
}
