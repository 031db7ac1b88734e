package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/jvmakine/fbsp/internal/aggregator"
	"github.com/jvmakine/fbsp/internal/bspserver"
	"github.com/jvmakine/fbsp/internal/buildinvoker"
	"github.com/jvmakine/fbsp/internal/config"
	"github.com/jvmakine/fbsp/internal/gradledriver"
	"github.com/jvmakine/fbsp/internal/linker"
	"github.com/jvmakine/fbsp/internal/obslog"
	"github.com/jvmakine/fbsp/internal/plugininjector"
	"github.com/jvmakine/fbsp/internal/probe"
	"github.com/jvmakine/fbsp/internal/targetgraph"
)

type CLI struct {
	Verbose bool       `short:"v" help:"Enable debug logging"`
	Serve   ServeCmd   `cmd:"" help:"Run the BSP server over stdio"`
	Plan    PlanCmd    `cmd:"" help:"Print the resolved build target graph and exit"`
	Install InstallCmd `cmd:"" help:"Write the .bsp/fbsp.json connection file for a project"`
}

type ServeCmd struct {
	Directory string `arg:"" optional:"" help:"Project root to serve (defaults to current directory)"`
}

type PlanCmd struct {
	Directory string `arg:"" optional:"" help:"Project root to inspect (defaults to current directory)"`
}

type InstallCmd struct {
	Directory string `arg:"" optional:"" help:"Project root to install into (defaults to current directory)"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Name("fbsp"), kong.Description("Build Server Protocol adapter for Gradle projects"))

	log := obslog.New()
	if cli.Verbose {
		log.SetLevel(obslog.LevelDebug)
	}

	var err error
	switch kctx.Command() {
	case "serve <directory>", "serve":
		err = runServe(cli.Serve.Directory, log)
	case "plan <directory>", "plan":
		err = runPlan(cli.Plan.Directory, log)
	case "install <directory>", "install":
		err = runInstall(cli.Install.Directory)
	default:
		err = fmt.Errorf("unknown command: %s", kctx.Command())
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "fbsp: %v\n", err)
		os.Exit(1)
	}
}

func resolveDirectory(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

func buildPipeline(projectRoot string, log *obslog.Logger) (*aggregator.BuildAggregator, *targetgraph.TargetGraph, config.GradlePreferences, error) {
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, nil, config.GradlePreferences{}, fmt.Errorf("loading configuration: %w", err)
	}
	driver := gradledriver.New()
	modelProbe := probe.New(log)
	agg := aggregator.New(driver, modelProbe, log)
	graph := targetgraph.New(log)
	return agg, graph, cfg.Gradle, nil
}

func runPlan(dir string, log *obslog.Logger) error {
	projectRoot, err := resolveDirectory(dir)
	if err != nil {
		return err
	}
	agg, graph, prefs, err := buildPipeline(projectRoot, log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	models, err := agg.Aggregate(ctx, projectRoot, prefs)
	if err != nil {
		return fmt.Errorf("aggregating project model: %w", err)
	}
	linker.Link(models)
	targets, err := graph.Store(models)
	if err != nil {
		return fmt.Errorf("storing target graph: %w", err)
	}

	encoded, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding targets: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func runServe(dir string, log *obslog.Logger) error {
	projectRoot, err := resolveDirectory(dir)
	if err != nil {
		return err
	}
	agg, graph, prefs, err := buildPipeline(projectRoot, log)
	if err != nil {
		return err
	}
	invoker := buildinvoker.New(projectRoot)
	injector, err := plugininjector.New()
	if err != nil {
		return fmt.Errorf("initializing plugin injector: %w", err)
	}

	srv := bspserver.New(projectRoot, prefs, agg, graph, invoker, injector, log)
	return srv.Serve(context.Background(), os.Stdin, os.Stdout)
}

func runInstall(dir string) error {
	projectRoot, err := resolveDirectory(dir)
	if err != nil {
		return err
	}
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving fbsp binary path: %w", err)
	}
	return config.WriteConnectionFile(projectRoot, self, "0.1.0")
}
