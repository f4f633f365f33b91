package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/composekit/compose"
	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/llm/streaming"
	"github.com/BaSui01/composekit/prompt"
	"github.com/BaSui01/composekit/workflow"
)

// =============================================================================
// 🧩 compose 命令
// =============================================================================

type promptFlags struct {
	common      commonFlags
	schemaPath  string
	vars        varsFlag
	retries     int
	temperature float64
}

func parsePromptFlags(name string, args []string) (*promptFlags, string, error) {
	pf := &promptFlags{vars: varsFlag{}}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	pf.common.register(fs)
	fs.StringVar(&pf.schemaPath, "schema", "", "Descriptor file (YAML/JSON)")
	fs.Var(pf.vars, "var", "Template variable key=value (repeatable)")
	fs.IntVar(&pf.retries, "retries", -1, "Retry budget 0-3 (default from config)")
	fs.Float64Var(&pf.temperature, "temperature", -1, "Temperature 0-1 (default from config)")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	text := strings.Join(fs.Args(), " ")
	if text == "" {
		return nil, "", errors.New("a prompt is required")
	}
	return pf, text, nil
}

func (pf *promptFlags) options(a *app) (llm.CompletionOptions, error) {
	opts := a.cfg.Compose.Options()
	if pf.retries >= 0 {
		opts.Retries = pf.retries
	}
	if pf.temperature >= 0 {
		opts.Temperature = pf.temperature
	}
	schema, err := loadSchema(pf.schemaPath)
	if err != nil {
		return opts, err
	}
	opts.Schema = schema
	return opts, nil
}

func (a *app) composer() *compose.Composer {
	return compose.New(a.provider,
		compose.WithLogger(a.logger),
		compose.WithRedactor(a.redactor),
		compose.WithMetrics(a.collector),
		compose.WithTracer(a.tracer()),
		compose.WithAudit(a.audit),
		compose.WithModel(a.cfg.Provider.Model),
	)
}

func runCompose(ctx context.Context, args []string, out io.Writer) error {
	pf, text, err := parsePromptFlags("compose", args)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, pf.common)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := pf.options(a)
	if err != nil {
		return err
	}

	return a.run(ctx, func(ctx context.Context) error {
		res, err := a.composer().Compose(ctx, compose.NewRequest(text, pf.vars, opts))
		if err != nil {
			return err
		}
		a.logger.Info("compose finished",
			zap.String("trace_id", res.TraceID),
			zap.Int("attempts", res.Attempts),
		)
		return printValue(out, res.Value)
	})
}

// =============================================================================
// 🌊 stream 命令
// =============================================================================

func runStream(ctx context.Context, args []string, out io.Writer) error {
	pf, text, err := parsePromptFlags("stream", args)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, pf.common)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := pf.options(a)
	if err != nil {
		return err
	}
	if opts, err = llm.NormalizeOptions(opts); err != nil {
		return err
	}
	if err := prompt.CheckTemplate(text); err != nil {
		return err
	}

	return a.run(ctx, func(ctx context.Context) error {
		req := llm.NewRequest("", prompt.Interpolate(text, pf.vars), opts)
		req.Model = a.cfg.Provider.Model
		ch, err := a.provider.Stream(ctx, req)
		if err != nil {
			return fmt.Errorf("stream: %w", err)
		}

		scanner := streaming.NewScanner(streaming.Config{
			BufferSize: a.cfg.Stream.BufferSize,
			DetectJSON: a.cfg.Stream.JSONDetection,
			Schema:     opts.Schema,
		}, streaming.WithLogger(a.logger), streaming.WithMetrics(a.collector))

		return printSignals(ctx, scanner, llm.Chunks(ctx, ch), out, a.logger)
	})
}

// printSignals 打印扫描信号。提前退出（如输出失败）时仍会 Finish 扫描器，
// 丢弃的尾部信号只记日志。
func printSignals(ctx context.Context, scanner *streaming.Scanner, chunks iter.Seq2[string, error], out io.Writer, logger *zap.Logger) error {
	finished := false
	defer func() {
		if finished {
			return
		}
		dropped := scanner.Finish()
		logger.Debug("stream finalized after early exit", zap.Int("dropped_signals", len(dropped)))
	}()

	var streamErr error
	for sig := range streaming.Scan(ctx, scanner, chunks) {
		switch sig.Kind {
		case streaming.SignalToken:
			fmt.Fprint(out, sig.Text)
		case streaming.SignalStructured:
			fmt.Fprintln(out, "\n--- structured ---")
			if err := printValue(out, sig.Value); err != nil {
				return err
			}
		case streaming.SignalError:
			logger.Warn("stream signal error", zap.Error(sig.Err))
			if streamErr == nil {
				streamErr = sig.Err
			}
		case streaming.SignalEnd:
			finished = true
			fmt.Fprintln(out)
		}
	}
	return streamErr
}

// =============================================================================
// 🧭 flow 命令
// =============================================================================

func runFlow(ctx context.Context, args []string, out io.Writer) error {
	var common commonFlags
	var file string
	fs := flag.NewFlagSet("flow", flag.ContinueOnError)
	common.register(fs)
	fs.StringVar(&file, "file", "", "Flow definition file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if file == "" {
		return errors.New("--file is required")
	}

	def, err := workflow.LoadDefinition(file)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, common)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := workflow.NewFromDefinition(a.provider, def,
		workflow.WithComposer(a.composer()),
		workflow.WithDefaults(a.cfg.Compose.Options()),
		workflow.WithLogger(a.logger),
		workflow.WithMetrics(a.collector),
		workflow.WithTracer(a.tracer()),
	)
	if err != nil {
		return err
	}

	return a.run(ctx, func(ctx context.Context) error {
		results, err := f.Execute(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("flow finished", zap.String("run_id", f.RunID()), zap.Int("steps", len(results)))
		return printValue(out, results)
	})
}

func printValue(out io.Writer, v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(out, s)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
