package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/composekit/audit"
	"github.com/BaSui01/composekit/config"
	"github.com/BaSui01/composekit/internal/metrics"
	"github.com/BaSui01/composekit/internal/server"
	"github.com/BaSui01/composekit/internal/telemetry"
	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/llm/providers/openaicompat"
	"github.com/BaSui01/composekit/redact"
	"github.com/BaSui01/composekit/structured"
	"github.com/BaSui01/composekit/testutil/mocks"
)

// =============================================================================
// 🧰 公共参数
// =============================================================================

type commonFlags struct {
	configPath  string
	provider    string
	metricsAddr string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to config file")
	fs.StringVar(&c.provider, "provider", "", "Generation backend: mock | openai")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

// varsFlag 收集 --var key=value，点号分隔的键生成嵌套映射
type varsFlag map[string]any

func (v varsFlag) String() string {
	parts := make([]string, 0, len(v))
	for k := range v {
		parts = append(parts, k)
	}
	return strings.Join(parts, ",")
}

func (v varsFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	segments := strings.Split(key, ".")
	node := map[string]any(v)
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
	return nil
}

// =============================================================================
// 🏗️ 运行环境
// =============================================================================

type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
	telemetry *telemetry.Providers
	provider  llm.Provider
	audit     audit.Store
	redactor  redact.Redactor
	closers   []func() error

	metricsAddr string
}

func newApp(ctx context.Context, flags commonFlags) (*app, error) {
	loader := config.NewLoader()
	if flags.configPath != "" {
		loader = loader.WithConfigPath(flags.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if flags.provider != "" {
		cfg.Provider.Name = flags.provider
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{
		cfg:         cfg,
		logger:      initLogger(cfg.Log),
		registry:    prometheus.NewRegistry(),
		redactor:    redact.PII,
		metricsAddr: flags.metricsAddr,
	}
	if !cfg.Compose.Redact {
		a.redactor = redact.None
	}
	if a.metricsAddr == "" && cfg.Metrics.Enabled {
		a.metricsAddr = cfg.Metrics.Addr
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.collector = metrics.NewCollectorWith(a.registry, cfg.Metrics.Namespace, a.logger)

	a.telemetry, err = telemetry.Init(cfg.Telemetry, a.logger)
	if err != nil {
		a.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	a.provider, err = buildProvider(cfg.Provider, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.audit, err = a.buildAudit(ctx, cfg.Audit)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) tracer() trace.Tracer { return a.telemetry.Tracer() }

// Close 释放审计连接并刷新遥测与日志
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// run 执行命令；配置了 metrics 地址时同时提供 /metrics，命令结束后关闭服务。
func (a *app) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if a.metricsAddr == "" {
		return fn(ctx)
	}

	srv := server.NewMetrics(server.Config{Addr: a.metricsAddr}, a.registry, a.logger)
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return fn(gctx)
	})
	return g.Wait()
}

// =============================================================================
// 🔌 依赖构建
// =============================================================================

func buildProvider(cfg config.ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	switch cfg.Name {
	case "mock":
		return mocks.NewMockProvider().WithSchemaEcho(), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("provider openai requires an api key (COMPOSEKIT_PROVIDER_API_KEY)")
		}
		return openaicompat.New(openaicompat.Config{
			ProviderName:      "openai",
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			DefaultModel:      cfg.Model,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

func (a *app) buildAudit(ctx context.Context, cfg config.AuditConfig) (audit.Store, error) {
	if !cfg.Enabled {
		return audit.NopStore{}, nil
	}
	switch cfg.Driver {
	case "redis":
		store, err := audit.NewRedisStore(ctx, cfg.Redis, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return audit.Observe(store, "redis", a.collector, a.logger), nil
	default:
		db := cfg.Database
		db.Driver = cfg.Driver
		store, err := audit.OpenGormStore(db, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return audit.Observe(store, cfg.Driver, a.collector, a.logger), nil
	}
}

func loadSchema(path string) (structured.Descriptor, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return structured.ParseDefinition(data)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
