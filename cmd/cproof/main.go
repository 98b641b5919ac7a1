package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/BurntSushi/toml"

	"cproof/internal/core/app"
	"cproof/internal/core/config"
	"cproof/internal/core/pipeline"
	"cproof/internal/shared/observability"
	"cproof/internal/ui/cli"
	"cproof/internal/ui/report"
)

var (
	configPath    = flag.String("config", "./cproof.toml", "Path to config file")
	projectRoot   = flag.String("project-root", "", "Project root for include resolution (default: entry file directory)")
	jsonOut       = flag.Bool("json", false, "Emit machine-readable results wrapped in result markers")
	progressUI    = flag.Bool("progress", false, "Show an interactive progress display")
	watch         = flag.Bool("watch", false, "Re-verify whenever the entry file or its includes change")
	noDeps        = flag.Bool("no-deps", false, "Verify the entry file alone without merging local includes")
	preserveTemps = flag.Bool("preserve-temps", false, "Keep the annotated source artifact after the run")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	versionFlag   = flag.Bool("version", false, "Print version and exit")
	showConfig    = flag.Bool("show-config", false, "Print the effective configuration and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("cproof v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	output := os.Stderr
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) || *configPath != "./cproof.toml" {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	config.ApplyEnvOverrides(cfg)
	applyFlagOverrides(cfg)

	if *showConfig {
		if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
			slog.Error("failed to render config", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cproof [flags] <entry.c>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	entryPath := flag.Arg(0)

	if cfg.Paths.ProjectRoot == "" {
		cfg.Paths.ProjectRoot = filepath.Dir(entryPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	if cfg.Observability.Enabled {
		if cfg.Observability.EnableTracing {
			shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, VERSION)
			if err != nil {
				slog.Warn("tracing disabled", "error", err)
			} else {
				defer shutdown(context.Background())
			}
		}
		if cfg.Observability.EnableMetrics {
			srv := cli.NewObservabilityServer(
				fmt.Sprintf(":%d", cfg.Observability.Port),
				app.NewHealthService(a),
			)
			if err := srv.Start(ctx); err != nil {
				slog.Warn("observability server disabled", "error", err)
			} else {
				defer srv.Stop(context.Background())
			}
		}
	}

	if *watch {
		os.Exit(runWatch(ctx, a, entryPath))
	}

	var res pipeline.Result
	if *progressUI && !*jsonOut {
		res, err = runWithProgress(ctx, a, entryPath)
		if err != nil {
			slog.Error("progress display failed", "error", err)
			res = a.Verify(ctx, entryPath)
		}
	} else {
		res = a.Verify(ctx, entryPath)
	}

	printResult(res)
	os.Exit(exitCode(res))
}

func applyFlagOverrides(cfg *config.Config) {
	if *projectRoot != "" {
		cfg.Paths.ProjectRoot = *projectRoot
	}
	if *noDeps {
		inline := false
		cfg.Verification.InlineDependencies = &inline
	}
	if *preserveTemps {
		cfg.Verification.PreserveTempArtifacts = true
	}
}

func runWatch(ctx context.Context, a *app.App, entryPath string) int {
	// First pass before entering the watch loop.
	printResult(a.Verify(ctx, entryPath))

	err := a.StartWatcher(ctx, entryPath, func(res pipeline.Result) {
		printResult(res)
	})
	if err != nil {
		slog.Error("watch mode failed", "error", err)
		return 1
	}
	if ctx.Err() != nil {
		return 130
	}
	return 0
}

func printResult(res pipeline.Result) {
	if *jsonOut {
		out, err := report.FormatJSON(res)
		if err != nil {
			slog.Error("failed to encode result", "error", err)
			return
		}
		fmt.Print(out)
		return
	}
	fmt.Print(report.Format(res))
}

func exitCode(res pipeline.Result) int {
	switch res.Status {
	case pipeline.StatusDone:
		if res.Verification != nil && res.Verification.Verified {
			return 0
		}
		return 2
	case pipeline.StatusCancelled:
		return 130
	default:
		return 1
	}
}
