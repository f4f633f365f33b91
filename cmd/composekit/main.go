// =============================================================================
// ComposeKit 命令行入口
// =============================================================================
// 从模型输出中提取符合 Schema 的结构化数据
//
// 使用方法:
//
//	composekit compose --schema product.yaml --var item=tent "Describe {{item}}"
//	composekit stream "Describe a tent as JSON"
//	composekit flow --file flow.yaml
//	composekit version
// =============================================================================

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/BaSui01/composekit/internal/telemetry"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "compose":
		err = runCompose(ctx, os.Args[2:], os.Stdout)
	case "stream":
		err = runStream(ctx, os.Args[2:], os.Stdout)
	case "flow":
		err = runFlow(ctx, os.Args[2:], os.Stdout)
	case "version":
		printVersion(os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	version := Version
	if version == "dev" {
		version = telemetry.Version()
	}
	fmt.Fprintf(w, "ComposeKit %s\n", version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `ComposeKit - schema-validated structured output from text models

Usage:
  composekit <command> [options]

Commands:
  compose   Generate once, validate against a schema, retry with hints
  stream    Stream a response and report fenced JSON blocks as they complete
  flow      Run a multi-step flow from a YAML/JSON file
  version   Show version information
  help      Show this help message

Options must precede the prompt text.

Common options:
  --config <path>        Path to configuration file (YAML)
  --provider <name>      Generation backend: mock | openai
  --metrics-addr <addr>  Serve Prometheus metrics while the command runs

Options for 'compose' and 'stream':
  --schema <path>        Descriptor file (YAML/JSON)
  --var key=value        Template variable (repeatable, dotted keys nest)
  --retries <n>          Retry budget 0-3 (compose only)
  --temperature <t>      Sampling temperature 0-1

Options for 'flow':
  --file <path>          Flow definition file

Examples:
  composekit compose --provider mock --schema widget.yaml "Describe a widget"
  composekit stream --config composekit.yaml "List three tents as JSON"
  composekit flow --file flow.yaml --metrics-addr :9091`)
}
