package worker

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"finqa/internal/config"
	"finqa/internal/registry"
	"finqa/internal/tasks"
	"finqa/internal/transport"
	"finqa/internal/vector"

	_ "finqa/internal/modules/generation"
	_ "finqa/internal/modules/indexing"
	_ "finqa/internal/modules/postretrieval"
	_ "finqa/internal/modules/retrieval"
)

type Worker struct {
	config config.Config

	rdb         *redis.Client
	asynqServer *asynq.Server

	transport   transport.Transport
	vectorStore vector.Store
}

func New(conf config.Config) *Worker {
	return &Worker{
		config: conf,
	}
}

func (w Worker) RegisterWorkflows(path string) error {
	wc, err := config.ReadWorkflowConfig(path)
	if err != nil {
		return err
	}

	workflows, err := config.ParseWorkflows(wc)
	if err != nil {
		return fmt.Errorf("failed to parse workflows config: %v", err)
	}

	err = registry.BatchRegisterWorkflows(workflows)
	if err != nil {
		return fmt.Errorf("failed to register workflows: %v", err)
	}
	return nil
}

func (w *Worker) Start() error {
	w.rdb = redis.NewClient(&redis.Options{
		Addr:     w.config.Transport.Addr(),
		Password: w.config.Transport.Password,
	})
	defer w.rdb.Close()

	w.asynqServer = asynq.NewServerFromRedisClient(
		w.rdb,
		asynq.Config{
			Concurrency: w.config.Worker.Concurrency,
		},
	)

	w.transport = transport.NewRedisTransport(w.rdb)

	vs, err := vector.NewStore(w.config.VectorStore.Type, w.config.VectorStore.Host, w.config.VectorStore.Port)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	w.vectorStore = vs
	defer w.vectorStore.Close()

	handler := tasks.NewTaskHandler(w.transport, w.vectorStore)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypePredict, handler)
	mux.Handle(tasks.TypeIndex, handler)

	if err := w.asynqServer.Run(mux); err != nil {
		return err
	}
	return nil
}
