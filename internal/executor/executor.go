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

package executor

import (
	"context"
	"maps"
	"reflect"

	"finqa/internal/transport"
	"finqa/internal/vector"
)

type Executor interface {
	Execute(ctx context.Context, params *ExecutorParams) *ExecutorResult
}

type ExecutorParams struct {
	taskID string
	query  string

	Operator    string
	Transport   transport.Transport
	VectorStore vector.Store
	Args        map[string]any
}

type ExecutorParamOption func(*ExecutorParams)

func NewExecutorParams(id string, query string, options ...ExecutorParamOption) *ExecutorParams {
	ep := &ExecutorParams{
		taskID:   id,
		query:    query,
		Operator: "",
		Args:     make(map[string]any),
	}
	for _, opt := range options {
		opt(ep)
	}
	return ep
}

func (p ExecutorParams) GetTaskID() string {
	return p.taskID
}

func (p ExecutorParams) GetQuery() string {
	return p.query
}

func (p ExecutorParams) WithQuery(q string) *ExecutorParams {
	newParams := p.Copy()
	newParams.query = q
	return newParams
}

func (p ExecutorParams) Copy() *ExecutorParams {
	newArgs := make(map[string]any)
	maps.Copy(newArgs, p.Args)

	return &ExecutorParams{
		query:       p.query,
		taskID:      p.taskID,
		Operator:    p.Operator,
		Transport:   p.Transport,
		VectorStore: p.VectorStore,
		Args:        newArgs,
	}
}

func (p ExecutorParams) GetArg(argName string) (any, error) {
	arg, ok := p.Args[argName]
	if !ok {
		return nil, ErrArgMissing{ArgName: argName}
	}
	return arg, nil
}

func WithOperator(op string) ExecutorParamOption {
	return func(ep *ExecutorParams) {
		ep.Operator = op
	}
}

func WithTransport(t transport.Transport) ExecutorParamOption {
	return func(ep *ExecutorParams) {
		ep.Transport = t
	}
}

func WithVectorStore(vs vector.Store) ExecutorParamOption {
	return func(ep *ExecutorParams) {
		ep.VectorStore = vs
	}
}

func WithArgs(args map[string]any) ExecutorParamOption {
	return func(ep *ExecutorParams) {
		ep.Args = args
	}
}

type ExecutorResult struct {
	Name     string
	Operator string
	Err      error
	Values   map[string]any
}

func (res *ExecutorResult) Get(valueName string) (any, bool) {
	val, ok := res.Values[valueName]
	if !ok {
		return nil, false
	}
	return val, true
}

func GetTypedArg[T any](p *ExecutorParams, argName string) (T, error) {
	arg, err := p.GetArg(argName)
	if err != nil {
		return *new(T), err
	}

	typedArg, ok := arg.(T)
	if !ok {
		expectedType := reflect.TypeOf((*T)(nil)).Elem()
		receivedType := reflect.TypeOf(arg)

		return *new(T), ErrInvalidArgumentType{
			Name:     argName,
			Expected: expectedType.String(),
			Received: receivedType.String(),
		}
	}

	return typedArg, nil
}

func GetTypedResult[T any](res *ExecutorResult, argName string) (T, bool) {
	arg, ok := res.Get(argName)
	if !ok {
		return *new(T), false
	}

	typedArg, ok := arg.(T)
	return typedArg, ok
}
