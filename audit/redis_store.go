package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/composekit/config"
	"github.com/BaSui01/composekit/internal/tlsutil"
	"github.com/BaSui01/composekit/types"
)

// RedisStore 把审计记录追加到 Redis Stream
type RedisStore struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewRedisStore 连接 Redis 并校验可用性
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = tlsutil.DefaultTLSConfig()
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	stream := cfg.Stream
	if stream == "" {
		stream = "composekit:attempts"
	}
	logger.Info("audit redis store connected",
		zap.String("addr", cfg.Addr),
		zap.String("stream", stream),
	)
	return &RedisStore{
		client: client,
		stream: stream,
		maxLen: cfg.MaxLen,
		logger: logger.With(zap.String("component", "audit_redis")),
	}, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	fill(&rec)
	issues, err := json.Marshal(rec.Issues)
	if err != nil {
		return fmt.Errorf("failed to encode issues: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":         rec.ID,
			"run_id":     rec.RunID,
			"step":       rec.Step,
			"attempt":    rec.Attempt,
			"provider":   rec.Provider,
			"prompt":     rec.Prompt,
			"raw":        rec.Raw,
			"outcome":    string(rec.Outcome),
			"issues":     string(issues),
			"created_at": rec.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Err()
}

// List 扫描整个 stream，返回属于 runID 的记录
func (s *RedisStore) List(ctx context.Context, runID string) ([]Record, error) {
	msgs, err := s.client.XRange(ctx, s.stream, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit stream: %w", err)
	}
	var records []Record
	for _, msg := range msgs {
		rec, err := decodeRecord(msg.Values)
		if err != nil {
			s.logger.Warn("skipping malformed audit entry", zap.String("entry", msg.ID), zap.Error(err))
			continue
		}
		if rec.RunID == runID {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Close 关闭客户端
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeRecord(values map[string]any) (Record, error) {
	str := func(k string) string {
		v, _ := values[k].(string)
		return v
	}
	var rec Record
	rec.ID = str("id")
	rec.RunID = str("run_id")
	rec.Provider = str("provider")
	rec.Prompt = str("prompt")
	rec.Raw = str("raw")
	rec.Outcome = Outcome(str("outcome"))

	var err error
	if rec.Step, err = strconv.Atoi(str("step")); err != nil {
		return rec, fmt.Errorf("step: %w", err)
	}
	if rec.Attempt, err = strconv.Atoi(str("attempt")); err != nil {
		return rec, fmt.Errorf("attempt: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, str("created_at")); err != nil {
		return rec, fmt.Errorf("created_at: %w", err)
	}
	if raw := str("issues"); raw != "" && raw != "null" {
		var issues []types.Issue
		if err := json.Unmarshal([]byte(raw), &issues); err != nil {
			return rec, fmt.Errorf("issues: %w", err)
		}
		rec.Issues = issues
	}
	return rec, nil
}
