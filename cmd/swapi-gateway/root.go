package main

import (
	"fmt"

	"github.com/Sternrassler/swapi-gateway/pkg/client"
	"github.com/Sternrassler/swapi-gateway/pkg/config"
	"github.com/Sternrassler/swapi-gateway/pkg/explorer"
	"github.com/Sternrassler/swapi-gateway/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const name = "swapi-gateway"

// overridden during build with ldflags
var version = "dev"

// app carries the state shared by the subcommands.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        config.Config
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{v: viper.New()})
}

func newRootCmd(a *app) *cobra.Command {
	config.SetDefaults(a.v)

	cmd := &cobra.Command{
		Use:          name,
		Short:        "Star Wars catalog explorer gateway",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("upstream-url", client.DefaultBaseURL, "upstream catalog root")
	flags.String("user-agent", client.DefaultConfig().UserAgent, "User-Agent sent upstream")
	flags.Duration("request-timeout", client.DefaultConfig().Timeout, "timeout of a single upstream attempt")
	flags.Int("max-attempts", client.DefaultRetryConfig().MaxAttempts, "upstream attempts per request, the first included")
	flags.Duration("initial-backoff", client.DefaultRetryConfig().InitialBackoff, "wait before the first retry")
	flags.Float64("backoff-multiplier", client.DefaultRetryConfig().BackoffMultiplier, "backoff growth per retry")
	flags.Int("max-pages", 100, "listing pages walked per query")
	flags.String("log-level", string(logging.LevelInfo), "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human-readable console logs")

	bind(a.v, flags.Lookup, map[string]string{
		config.KeyUpstreamURL:       "upstream-url",
		config.KeyUserAgent:         "user-agent",
		config.KeyRequestTimeout:    "request-timeout",
		config.KeyMaxAttempts:       "max-attempts",
		config.KeyInitialBackoff:    "initial-backoff",
		config.KeyBackoffMultiplier: "backoff-multiplier",
		config.KeyMaxPages:          "max-pages",
		config.KeyLogLevel:          "log-level",
		config.KeyLogPretty:         "log-pretty",
	})

	cmd.AddCommand(newServeCmd(a), newExploreCmd(a))
	return cmd
}

// init reads the optional config file, loads the configuration and sets up
// logging. Flags override the environment, which overrides the file.
func (a *app) init() error {
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", a.configFile, err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging)
	return nil
}

// newService builds the upstream client and the explorer service.
func (a *app) newService() (*explorer.Service, error) {
	upstream, err := client.New(a.cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("create upstream client: %w", err)
	}
	return explorer.NewService(upstream, a.cfg.Pagination), nil
}
