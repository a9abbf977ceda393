package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/astroprop/internal/logging"
	"github.com/san-kum/astroprop/internal/storage"
)

// Persistent settings come from flags or ASTROPROP_* environment variables.
var settings = viper.New()

func main() {
	rootCmd := &cobra.Command{
		Use:           "astroprop",
		Short:         "spacecraft orbit propagation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("data", ".astroprop", "data directory")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error, none")
	rootCmd.PersistentFlags().String("log-format", "logfmt", "log format: logfmt or json")

	settings.SetEnvPrefix("astroprop")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	if err := settings.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd.AddCommand(
		runCommand(),
		monteCarloCommand(),
		compareCommand(),
		divergenceCommand(),
		tuneCommand(),
		listCommand(),
		plotCommand(),
		exportCommand(),
		presetsCommand(),
		methodsCommand(),
		forcesCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (log.Logger, error) {
	return logging.New(os.Stderr, settings.GetString("log-format"), settings.GetString("log-level"))
}

func openStore() (*storage.Store, error) {
	st := storage.New(settings.GetString("data"))
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}
