package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypePredict = "finqa:predict"
	TypeIndex   = "finqa:index"
)

const (
	DefaultWorkflowPredict = "mcq"
)

type predictTaskPayload struct {
	Query      string
	User       string
	WorkflowId string
	Args       map[string]string
}

func NewPredictTask(query, user, workflowId string, args map[string]string) (*asynq.Task, error) {
	tp := predictTaskPayload{
		Query:      query,
		User:       user,
		WorkflowId: workflowId,
		Args:       args,
	}
	payload, err := json.Marshal(tp)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePredict, payload), nil
}

type indexTaskPayload struct {
	Path           string
	CollectionName string
	Args           map[string]string
}

func NewIndexTask(path, collectionName string, args map[string]string) (*asynq.Task, error) {
	tp := indexTaskPayload{
		Path:           path,
		CollectionName: collectionName,
		Args:           args,
	}
	payload, err := json.Marshal(tp)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeIndex, payload), nil
}
