package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"finqa/internal/config"
	"finqa/internal/transport"
)

// Server exposes the prediction API over HTTP. Requests are enqueued
// for the worker and answers are read back from the message transport.
type Server struct {
	config config.Config

	rdb *redis.Client

	transport   transport.Transport
	asynqClient *asynq.Client
}

func New(conf config.Config) *Server {
	return &Server{
		config: conf,
	}
}

func (s *Server) Serve() error {
	lisAddr := fmt.Sprintf("%s:%d", s.config.Server.ListenHost, s.config.Server.ListenPort)
	lis, err := net.Listen("tcp", lisAddr)
	if err != nil {
		slog.Error("failed to start server", "err", err)
		return err
	}

	s.rdb = redis.NewClient(&redis.Options{
		Addr:     s.config.Transport.Addr(),
		Password: s.config.Transport.Password,
	})
	defer s.rdb.Close()

	s.transport = transport.NewRedisTransport(s.rdb)

	s.asynqClient = asynq.NewClientFromRedisClient(s.rdb)
	defer s.asynqClient.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /traces/{id}", s.handleTrace)

	slog.Info("Server starting", "listener", lisAddr)
	if err := http.Serve(lis, mux); err != nil {
		slog.Error("failed to serve", "err", err)
		return err
	}
	return nil
}
