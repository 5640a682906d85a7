// Package cli implements the greeting command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openjobspec/ojs-hello-world/internal/config"
)

// app carries the state shared by all commands of one CLI instance.
type app struct {
	configFile string
	vip        *viper.Viper
	conf       config.Config
	logger     *slog.Logger
	osSignal   <-chan os.Signal
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greeting",
		Short: "Greet people in one of ten languages, as a job.",
		Long: `greeting runs the hello-world job hooks locally or serves them
for push delivery from a job server.`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.Load(a.vip, a.configFile)
			if err != nil {
				return err
			}

			a.conf = conf
			a.logger = newLogger(cmd.ErrOrStderr(), conf.Log)

			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "path to a config file (yaml, json or toml)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	cmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	_ = a.vip.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = a.vip.BindPFlag("log.format", cmd.PersistentFlags().Lookup("log-format"))

	return cmd
}

// NewGreetingCLI initialises the complete greeting cli with its commands and returns the root command.
func NewGreetingCLI(osSignal <-chan os.Signal) *cobra.Command {
	a := &app{
		vip:      config.DefaultViper(),
		osSignal: osSignal,
	}

	rootCmd := newRootCmd(a)
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLanguagesCmd())
	rootCmd.AddCommand(newInvokeCmd(a))
	rootCmd.AddCommand(newErrorCmd(a))
	rootCmd.AddCommand(newHaltCmd(a))
	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newServeCmd(a))

	return rootCmd
}

// Execute runs the greeting cli.
func Execute() {
	if err := NewGreetingCLI(NewInterruptSignalChannel()).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewInterruptSignalChannel returns a channel listening for os.Signals the greeting cli will react to.
func NewInterruptSignalChannel() chan os.Signal {
	signalsToListenTo := []os.Signal{
		syscall.SIGINT,  // Strg + c
		syscall.SIGTERM, // terminate but finish/cleanup first, e.g. kill
		os.Interrupt,
	}

	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, signalsToListenTo...)

	return osSignal
}

func newLogger(w io.Writer, conf config.Log) *slog.Logger {
	opts := &slog.HandlerOptions{Level: conf.SlogLevel()}
	if conf.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("could not encode output: %w", err)
	}
	return nil
}
