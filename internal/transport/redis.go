package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	traceKeyPrefix = "finqa:trace:"

	// recvMaxFailures bounds consecutive read errors tolerated by Text
	// before the stream is considered broken.
	recvMaxFailures = 10
	recvRetryDelay  = 100 * time.Millisecond
)

type RedisTransport struct {
	rdb *redis.Client
}

func NewRedisTransport(rdb *redis.Client) *RedisTransport {
	return &RedisTransport{
		rdb: rdb,
	}
}

func (t *RedisTransport) GetMessageStream(id string) (MessageStream, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("invalid stream ID")
	}
	rs := &RedisStream{
		id:          id,
		lastRedisID: "0",
		rdb:         t.rdb,
	}
	return rs, nil
}

func (t *RedisTransport) SetTrace(ctx context.Context, trace *RequestTrace) error {
	if trace == nil || trace.ID == "" {
		return fmt.Errorf("invalid request trace")
	}

	key := traceKeyPrefix + trace.ID
	if err := t.rdb.HSet(ctx, key, trace).Err(); err != nil {
		return fmt.Errorf("failed to store request trace: %w", err)
	}

	if err := t.rdb.Expire(ctx, key, TraceExpiry).Err(); err != nil {
		slog.Warn("failed to set trace expiry", "trace_id", trace.ID, "error", err)
	}
	return nil
}

func (t *RedisTransport) GetTrace(ctx context.Context, traceId string) (*RequestTrace, error) {
	res := t.rdb.HGetAll(ctx, traceKeyPrefix+traceId)
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("failed to read request trace: %w", err)
	}

	if len(res.Val()) == 0 {
		return nil, fmt.Errorf("no trace found for id %q", traceId)
	}

	var trace RequestTrace
	if err := res.Scan(&trace); err != nil {
		return nil, fmt.Errorf("failed to deserialize request trace: %w", err)
	}
	return &trace, nil
}

type RedisStream struct {
	id          string
	lastRedisID string

	rdb *redis.Client
}

func (s RedisStream) Send(ctx context.Context, payload MessageStreamPayload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	res, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.id,
		ID:     "*",
		Values: map[string]any{
			"payload": string(payloadJSON),
		},
	}).Result()

	if err != nil {
		return err
	}

	slog.Debug("appended message to redis stream", "res", res)
	return nil
}

func (s *RedisStream) Recv(ctx context.Context) (*MessageStreamPayload, error) {
	rstreams, err := s.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.id, s.lastRedisID},
		Count:   1,
		Block:   0,
	}).Result()
	if err != nil {
		return nil, err
	}

	msg := rstreams[0].Messages[0]
	s.lastRedisID = msg.ID
	payloadJSON, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("failed to read payload from stream message")
	}

	var payload MessageStreamPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, fmt.Errorf("failed to deserialize stream message payload")
	}

	return &payload, nil
}

func (s *RedisStream) Text(ctx context.Context) (string, error) {
	var sb strings.Builder
	failures := 0

	for {
		payload, err := s.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			failures += 1
			if failures >= recvMaxFailures {
				return "", fmt.Errorf("reading message stream %q: %w", s.id, err)
			}

			time.Sleep(recvRetryDelay)
			continue
		}
		failures = 0

		switch payload.Status {
		case StatusErr:
			return "", fmt.Errorf("message stream %q reported failure: %s", s.id, payload.Content)
		case StatusDone:
			return sb.String(), nil
		}

		if payload.Type == MessageTypeContent {
			sb.WriteString(payload.Content)
		}
	}
}

func (s *RedisStream) GetID() string {
	return s.id
}
