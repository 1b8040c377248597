// Package main implements the ruleforge CLI, a thin demonstration harness
// around the pkg/rules engine: it loads one of the built-in §8 scenarios,
// runs it to a fixed point, and prints the resulting execution trace, either
// to stdout or as a replay in a bubbletea viewer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ruleforge/cmd/ruleforge/demo"
	"ruleforge/cmd/ruleforge/tui"
	"ruleforge/internal/config"
	"ruleforge/internal/logging"
)

var (
	verbose    bool
	workspace  string
	watch      bool
	configPath string

	logger    *zap.Logger
	engineCfg config.EngineConfig
)

var rootCmd = &cobra.Command{
	Use:   "ruleforge",
	Short: "ruleforge - a forward-chaining production-rule engine",
	Long: `ruleforge drives a typed working memory through a match-resolve-act
cycle: a nested condition DSL compiles to a node network, a conflict
resolver orders each cycle's agenda, and matching rules fire until the
engine reaches a fixed point or exhausts its cycle limit.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}

		loadedCfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		engineCfg = loadedCfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "run a built-in demo scenario and print its execution trace",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list the available demo scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range demo.Names() {
			s, _ := demo.Lookup(name)
			fmt.Printf("%-20s %s\n", s.Name, s.Description)
		}
		return nil
	},
}

func runRun(cmd *cobra.Command, args []string) error {
	name := "adult-birthday"
	if len(args) == 1 {
		name = args[0]
	}

	scenario, ok := demo.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown scenario %q (see `ruleforge list`)", name)
	}

	engine := demo.NewEngine(engineCfg)
	if err := scenario.Build(engine); err != nil {
		return fmt.Errorf("building scenario %q: %w", name, err)
	}

	logger.Info("running scenario", zap.String("scenario", name), zap.String("engineID", engine.ID))

	if watch {
		return tui.Run(engine, scenario.Name)
	}

	runErr := engine.Run()
	trace := engine.GetExecutionTrace()
	for i, entry := range trace {
		fmt.Printf("firing %d: rule=%q facts=%d added=%d\n", i+1, entry.RuleName, len(entry.Facts), len(entry.FactsAdded))
	}

	if runErr != nil {
		logger.Warn("engine run did not reach a fixed point", zap.Error(runErr))
		return runErr
	}
	logger.Info("engine reached a fixed point", zap.Int("firings", len(trace)))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory for log output (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ruleforge.yaml", "path to an EngineConfig YAML file (defaults are used if it doesn't exist)")
	runCmd.Flags().BoolVar(&watch, "watch", false, "replay the execution trace in a terminal UI")
	rootCmd.AddCommand(runCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
