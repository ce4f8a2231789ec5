package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/c360studio/chainflow/chain"
	"github.com/c360studio/chainflow/config"
	"github.com/c360studio/chainflow/prompt"
	"github.com/c360studio/chainflow/prompt/natskv"
	"github.com/c360studio/chainflow/provider"
)

// app bundles the wired runtime pieces for one invocation.
type app struct {
	cfg          *config.Config
	orchestrator *chain.Orchestrator
	watcher      *config.Watcher
	closeNATS    func()
}

func runCmd(configPath, logLevel *string) *cobra.Command {
	var (
		local1          string
		local2          string
		local3          string
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "run [chain.json]",
		Short: "Execute a chain definition",
		Long: `Execute a chain definition read from a JSON file, or from stdin
when no file is given. Prints the chain outcome as JSON on stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(*logLevel)

			data, err := readChainInput(args)
			if err != nil {
				return err
			}

			calls, err := chain.DecodeChain(data)
			if err != nil {
				return fmt.Errorf("decode chain: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := buildApp(ctx, *configPath, logger)
			if err != nil {
				return err
			}
			defer a.close()

			coe := continueOnErrorSetting(
				cmd.Flags().Changed("continue-on-error"), continueOnError, a.cfg)
			req := chain.Request{
				Calls:           calls,
				ContinueOnError: &coe,
			}
			if local1 != "" || local2 != "" || local3 != "" {
				req.Locals = &prompt.Locals{Local1: local1, Local2: local2, Local3: local3}
			}

			outcome, err := a.orchestrator.Execute(ctx, req)
			if err != nil {
				return fmt.Errorf("execute chain: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcome); err != nil {
				return fmt.Errorf("encode outcome: %w", err)
			}

			if !outcome.Success {
				return fmt.Errorf("chain completed with %d/%d successful calls",
					outcome.SuccessfulCalls, outcome.TotalCalls)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&local1, "local1", "", "First-level prompt local (e.g. language)")
	cmd.Flags().StringVar(&local2, "local2", "", "Second-level prompt local (e.g. region)")
	cmd.Flags().StringVar(&local3, "local3", "", "Third-level prompt local")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "Execute remaining steps after a step fails (default from config)")

	return cmd
}

// continueOnErrorSetting picks the effective continue-on-error value: an
// explicitly set flag wins, otherwise the configured chain default applies.
func continueOnErrorSetting(flagSet bool, flagValue bool, cfg *config.Config) bool {
	if flagSet {
		return flagValue
	}
	return cfg.Chain.ContinueOnError
}

func providersCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered providers and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(*logLevel)

			cfg, err := loadConfig(*configPath, logger)
			if err != nil {
				return err
			}

			registry := provider.Default()
			cfg.Apply(registry)

			names := registry.List()
			sort.Strings(names)
			if len(names) == 0 {
				fmt.Println("No providers registered. Set ANTHROPIC_API_KEY, OPENAI_API_KEY, or OLLAMA_HOST.")
				return nil
			}

			for _, name := range names {
				h, err := registry.Get(name)
				if err != nil {
					fmt.Printf("  %s  (disabled)\n", name)
					continue
				}
				marker := " "
				if name == registry.Primary() {
					marker = "*"
				}
				caps := make([]string, 0, len(h.Capabilities()))
				for _, c := range h.Capabilities() {
					caps = append(caps, c.String())
				}
				sort.Strings(caps)
				fmt.Printf("%s %s  %v\n", marker, name, caps)
			}
			return nil
		},
	}
}

func initCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default user config file",
		Long:  `Write a default config to ~/.config/chainflow/config.yaml unless one already exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(*logLevel)
			return config.NewLoader(logger).EnsureUserConfig()
		},
	}
}

func readChainInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read chain file: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read chain from stdin: %w", err)
	}
	return data, nil
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}
	return config.NewLoader(logger).Load()
}

// buildApp wires the registry, prompt store, cache, and orchestrator from
// configuration. Providers self-register via init; config narrows that set.
func buildApp(ctx context.Context, configPath string, logger *slog.Logger) (*app, error) {
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return nil, err
	}

	registry := provider.Default()
	cfg.Apply(registry)

	a := &app{cfg: cfg, closeNATS: func() {}}

	var store prompt.Store
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		a.closeNATS = nc.Close

		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create JetStream context: %w", err)
		}

		kvStore, err := natskv.New(ctx, js, natskv.WithLogger(logger))
		if err != nil {
			nc.Close()
			return nil, err
		}
		store = kvStore
		logger.Info("Using NATS prompt store", "url", cfg.NATS.URL)
	} else {
		store = prompt.NewMemoryStore()
		logger.Info("Using in-memory prompt store")
	}

	prompts := prompt.NewService(store,
		prompt.WithCache(prompt.DefaultCache()),
		prompt.WithLogger(logger))

	a.orchestrator = chain.NewOrchestrator(registry, prompts,
		chain.WithOrchestratorLogger(logger))

	a.watcher = startConfigWatcher(ctx, configPath, registry, logger)
	return a, nil
}

// startConfigWatcher hot-reloads the config file in effect and re-applies
// the provider enabled set and cache settings on change. Returns nil when
// no config file exists to watch; reload failures only log.
func startConfigWatcher(ctx context.Context, configPath string, registry *provider.Registry, logger *slog.Logger) *config.Watcher {
	watchPath := configPath
	if watchPath == "" {
		watchPath = config.NewLoader(logger).ProjectConfigPath()
	}
	if watchPath == "" {
		return nil
	}

	w, err := config.NewWatcher(config.WatcherConfig{Path: watchPath, Logger: logger})
	if err != nil {
		logger.Warn("Config watcher unavailable", "error", err)
		return nil
	}
	if err := w.Start(ctx); err != nil {
		logger.Warn("Failed to start config watcher", "path", watchPath, "error", err)
		return nil
	}

	go func() {
		for cfg := range w.Events() {
			cfg.Apply(registry)
		}
	}()
	return w
}

func (a *app) close() {
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	a.closeNATS()
}
