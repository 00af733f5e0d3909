package executor

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"finqa/internal/api"
)

type WorkflowNode struct {
	executor Executor
	operator string
	args     map[string]any
}

func NewWorkflowNode(executor Executor, operator string, args map[string]any) WorkflowNode {
	node := WorkflowNode{
		executor: executor,
		operator: operator,
		args:     args,
	}
	return node
}

func (n *WorkflowNode) Execute(ctx context.Context, params *ExecutorParams) *ExecutorResult {
	return n.executor.Execute(ctx, params)
}

// Workflow runs its nodes in order, threading a transformed query and
// retrieved context documents from one node into the next.
type Workflow struct {
	identifier     string
	description    string
	collectionName string

	nodes []WorkflowNode
}

func NewWorkflow(identifier string, description string, collectionName string, nodes []WorkflowNode) *Workflow {
	workflow := &Workflow{
		identifier:     identifier,
		description:    description,
		collectionName: collectionName,
		nodes:          nodes,
	}
	return workflow
}

func (w *Workflow) Identifier() string {
	return w.identifier
}

func (w *Workflow) Description() string {
	return w.description
}

func (w *Workflow) Execute(ctx context.Context, params *ExecutorParams) *ExecutorResult {
	params.Args["collection_name"] = w.collectionName

	slog.Info("executing workflow", "workflowId", w.identifier, "query", params.GetQuery())

	var result *ExecutorResult
	for nodeIdx := 0; nodeIdx < len(w.nodes); nodeIdx++ {
		node := w.nodes[nodeIdx]
		nodeParams := params.Copy()
		nodeParams.Operator = node.operator
		maps.Copy(nodeParams.Args, node.args)

		result = node.executor.Execute(ctx, nodeParams)

		if result.Err != nil {
			slog.Error("failed to execute node", "workflowId", w.identifier,
				"operator", node.operator, "error", fmt.Sprintf("(%T): %v", result.Err, result.Err))
			return result
		}

		if queryTransformed, ok := GetTypedResult[string](result, "query_transformed"); ok {
			// node returned a rewritten query, downstream nodes see it
			params = params.WithQuery(queryTransformed)
		}

		if newContext, ok := GetTypedResult[[]*api.ScoredDocument](result, "context_docs"); ok {
			if replace, ok := GetTypedResult[bool](result, "replace_context"); ok && replace {
				params.Args["context_docs"] = newContext
				continue
			}

			existing, ok := params.Args["context_docs"]
			if !ok {
				params.Args["context_docs"] = newContext
				continue
			}

			existingTyped, ok := existing.([]*api.ScoredDocument)
			if !ok {
				slog.Error("workflow error", "msg", "invalid type of context docs in params")
				existingTyped = nil
			}
			params.Args["context_docs"] = append(existingTyped, newContext...)
		}
	}

	if result == nil {
		result = &ExecutorResult{}
	}
	result.Name = w.identifier
	return result
}
