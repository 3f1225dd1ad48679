// Package cli implements the sinum-monitor command.
package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clambin/go-common/charmer"
	"github.com/clambin/sinum-monitor/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilename string
	RootCmd        = cobra.Command{
		Use:   "sinum-monitor",
		Short: "Monitor for Sinum home-automation controllers",
		RunE:  run,
	}
)

var args = charmer.Arguments{
	"debug":            {Default: false, Help: "Log debug messages"},
	"sinum.host":       {Default: "", Help: "Sinum controller address"},
	"sinum.username":   {Default: "", Help: "Sinum username"},
	"sinum.password":   {Default: "", Help: "Sinum password"},
	"sinum.authscheme": {Default: "bearer", Help: "Authorization header scheme (bearer or raw)"},
	"sinum.timeout":    {Default: 10 * time.Second, Help: "Controller request timeout"},
	"poller.interval":  {Default: time.Minute, Help: "Poller interval"},
	"exporter.addr":    {Default: ":9090", Help: "Address of the Prometheus exporter"},
	"health.addr":      {Default: ":8080", Help: "Address of the /health endpoint"},
	"bot.token":        {Default: "", Help: "Slack token"},
}

func run(cmd *cobra.Command, _ []string) error {
	var opts slog.HandlerOptions
	if viper.GetBool("debug") {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &opts))

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("sinum-monitor starting", "version", cmd.Root().Version)
	defer logger.Info("sinum-monitor stopped")

	return monitor.Run(ctx, viper.GetViper(), cmd.Root().Version, prometheus.NewRegistry(), logger)
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.Flags().StringVar(&configFilename, "config", "", "Configuration file")
	RootCmd.Flags().Bool("debug", false, "Log debug messages")
	_ = viper.BindPFlag("debug", RootCmd.Flags().Lookup("debug"))
}

func initConfig() {
	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("/etc/sinum-monitor/")
		viper.AddConfigPath("$HOME/.sinum-monitor")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	if err := charmer.SetDefaults(viper.GetViper(), args); err != nil {
		panic("failed to set viper defaults: " + err.Error())
	}

	viper.SetEnvPrefix("SINUM_MONITOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Error("failed to read config file", "err", err)
		os.Exit(1)
	}
}
