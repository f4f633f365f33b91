package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/composekit/internal/metrics"
	"github.com/BaSui01/composekit/types"
)

// Outcome 单次尝试的结果
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
)

// Record 一次生成尝试的审计记录。Prompt 与 Raw 在写入前已经过脱敏。
type Record struct {
	ID        string        `json:"id" gorm:"primaryKey;size:36"`
	RunID     string        `json:"run_id,omitempty" gorm:"index;size:36"`
	Step      int           `json:"step,omitempty"`
	Attempt   int           `json:"attempt"`
	Provider  string        `json:"provider" gorm:"size:64"`
	Prompt    string        `json:"prompt"`
	Raw       string        `json:"raw"`
	Outcome   Outcome       `json:"outcome" gorm:"size:16"`
	Issues    []types.Issue `json:"issues,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
}

// TableName 审计表名
func (Record) TableName() string { return "compose_attempts" }

// OutcomeFor 根据错误码归类尝试结果
func OutcomeFor(code types.ErrorCode) Outcome {
	switch code {
	case "":
		return OutcomeSuccess
	case types.ErrNoBlockFound, types.ErrSchemaMismatch:
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Store 审计存储
type Store interface {
	Save(ctx context.Context, rec Record) error
}

// Lister 支持按运行 ID 回查的存储
type Lister interface {
	List(ctx context.Context, runID string) ([]Record, error)
}

// ErrListUnsupported 底层存储不支持按运行 ID 回查
var ErrListUnsupported = errors.New("audit store does not support listing")

// NopStore 丢弃所有记录
type NopStore struct{}

// Save implements Store.
func (NopStore) Save(context.Context, Record) error { return nil }

// fill 补全 ID 与时间戳
func fill(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

// =============================================================================
// 📊 指标装饰
// =============================================================================

type observedStore struct {
	Store
	name      string
	collector *metrics.Collector
	logger    *zap.Logger
}

// Observe 为存储附加写入耗时与失败计数；collector 为 nil 时原样返回。
func Observe(s Store, name string, collector *metrics.Collector, logger *zap.Logger) Store {
	if collector == nil {
		return s
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &observedStore{Store: s, name: name, collector: collector, logger: logger}
}

func (o *observedStore) Save(ctx context.Context, rec Record) error {
	start := time.Now()
	err := o.Store.Save(ctx, rec)
	o.collector.RecordAuditWrite(o.name, err, time.Since(start))
	if err != nil {
		o.logger.Debug("audit write failed", zap.String("store", o.name), zap.Error(err))
	}
	return err
}

// List 透传底层存储的查询能力；底层不是 Lister 时返回 ErrListUnsupported
func (o *observedStore) List(ctx context.Context, runID string) ([]Record, error) {
	if l, ok := o.Store.(Lister); ok {
		return l.List(ctx, runID)
	}
	return nil, fmt.Errorf("%s: %w", o.name, ErrListUnsupported)
}
