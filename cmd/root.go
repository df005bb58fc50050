package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cnlance/rulesd/internal/api"
	"github.com/cnlance/rulesd/internal/config"
	"github.com/cnlance/rulesd/internal/daemon"
	"github.com/cnlance/rulesd/internal/log"
	"github.com/cnlance/rulesd/internal/persist"
	"github.com/cnlance/rulesd/internal/store"
)

var (
	AppVersion    = "Development"
	shutdownChain []func() error
)

var rootCmd = &cobra.Command{
	Use:   "rulesd",
	Short: "rulesd is a traffic-classification rule service",
	Long: "rulesd maintains an ordered collection of traffic-classification rules " +
		"(DOMAIN, IP-CIDR, DST-PORT, ...) over a small HTTP API, validates every " +
		"rule against its type's grammar, and persists the collection to disk for " +
		"downstream proxy and routing engines to consume.",
	RunE: runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Short flags
	rootCmd.Flags().StringP("config", "c", "", "Config file path")
	rootCmd.Flags().StringP("bind", "b", "", "Bind address")
	rootCmd.Flags().IntP("port", "p", 0, "Port")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level")
	rootCmd.Flags().StringP("rules-file", "f", "", "Rules file path")
	rootCmd.Flags().BoolP("version", "v", false, "Show version")
	rootCmd.Flags().BoolP("generate-config", "g", false, "Generate template config file")

	// Long flags
	rootCmd.Flags().String("log-file", "", "Log file path")

	// Bind all flags to viper using consistent key names
	_ = viper.BindPFlag("config", rootCmd.Flags().Lookup("config"))
	_ = viper.BindPFlag("bind-address", rootCmd.Flags().Lookup("bind"))
	_ = viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("log-level", rootCmd.Flags().Lookup("log-level"))
	_ = viper.BindPFlag("log-file", rootCmd.Flags().Lookup("log-file"))
	_ = viper.BindPFlag("rules-file", rootCmd.Flags().Lookup("rules-file"))

	// Bind environment variables
	viper.SetEnvPrefix("RULESD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("bind-address", "RULESD_BIND_ADDRESS")
	_ = viper.BindEnv("port", "RULESD_PORT")
	_ = viper.BindEnv("log-level", "RULESD_LOG_LEVEL")
	_ = viper.BindEnv("log-file", "RULESD_LOG_FILE")
	_ = viper.BindEnv("rules-file", "RULESD_RULES_FILE")
}

func initConfig() {
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.MergeInConfig(); err != nil {
			slog.Error("Failed to read config file", slog.Any("error", err))
			os.Exit(1)
		}
	}

	viper.SetDefault("bind-address", "127.0.0.1")
	viper.SetDefault("port", 3500)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("rules-file", "rules.json")
}

func runRoot(cmd *cobra.Command, args []string) error {
	// Handle -v / --version
	showVer, _ := cmd.Flags().GetBool("version")
	if showVer {
		fmt.Printf("rulesd version %s\n", AppVersion)
		return nil
	}

	// Handle -g / --generate-config
	genConfig, _ := cmd.Flags().GetBool("generate-config")
	if genConfig {
		_, err := config.GenerateTemplateConfig(true)
		if err != nil {
			return fmt.Errorf("failed to generate template config: %w", err)
		}
		fmt.Println("Template config file 'config.yaml' generated successfully.")
		return nil
	}

	cfg, err := config.BuildConfigFromViper()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	lb := log.NewBroadcaster()
	log.SetLogConf(cfg.LogLevel, cfg.LogFile, lb)
	log.LogHeader(AppVersion, cfg)

	if err := daemon.Setup(); err != nil {
		slog.Error("daemon.Setup", slog.Any("error", err))
		return err
	}

	st, err := store.Load(persist.New(cfg.RulesFile))
	if err != nil {
		slog.Error("store.Load", slog.Any("error", err))
		return err
	}

	srv := api.New(cfg.ListenAddr, AppVersion, st, lb)
	addShutdown("srv.Close", srv.Close)
	if err := srv.Start(); err != nil {
		slog.Error("srv.Start", slog.Any("error", err))
		shutdown()
		return err
	}

	cleanup := make(chan os.Signal, 1)
	signal.Notify(cleanup, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
	for {
		s := <-cleanup
		slog.Info("Received signal", slog.String("signal", s.String()))
		switch s {
		case syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM:
			shutdown()
			return nil
		case syscall.SIGHUP:
		default:
			return nil
		}
	}
}

func addShutdown(name string, fn func() error) {
	shutdownChain = append(shutdownChain, func() error {
		if err := fn(); err != nil {
			slog.Error(name, slog.Any("error", err))
			return err
		}
		return nil
	})
}

func shutdown() {
	for i := len(shutdownChain) - 1; i >= 0; i-- {
		_ = shutdownChain[i]()
	}
	slog.Info("rulesd exit")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
