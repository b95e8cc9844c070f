// Package main is the entry point for the PyramidPlay player.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edumarques81/pyramidplay/internal/config"
	"github.com/edumarques81/pyramidplay/internal/version"
)

// flags holds command line overrides. Unset flags keep the value loaded
// from the environment.
type flags struct {
	envFile   string
	port      string
	output    string
	mpdHost   string
	mpdPort   int
	mediaRoot string
	dataDir   string
	catalog   string
	logLevel  string
	logFile   string
	static    string
	debug     bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "pyramidplay",
		Short:         "PyramidPlay music player",
		Long:          "PyramidPlay drives a single audio output from a shared player state and serves it to Socket.io clients.",
		Version:       version.GetInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.envFile, "env", ".env", "Optional .env file")
	pf.StringVar(&f.output, "output", "", "Audio output: mpd or speaker")
	pf.StringVar(&f.mpdHost, "mpd-host", "", "MPD host")
	pf.IntVar(&f.mpdPort, "mpd-port", 0, "MPD port")
	pf.StringVar(&f.mediaRoot, "media-root", "", "Directory that rooted track sources resolve against")
	pf.StringVar(&f.dataDir, "data-dir", "", "Directory for the library database")
	pf.StringVar(&f.catalog, "catalog", "", "JSON file listing available tracks")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFile, "log-file", "", "Rotating JSON log file")
	pf.BoolVar(&f.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newServeCmd(f), newConsoleCmd(f), newVersionCmd())
	return root
}

// loadConfig reads the environment and applies flags that were set.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.Load(f.envFile)

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("output") {
		cfg.Output = config.Output(f.output)
	}
	if changed("mpd-host") {
		cfg.MPDHost = f.mpdHost
	}
	if changed("mpd-port") {
		cfg.MPDPort = f.mpdPort
	}
	if changed("media-root") {
		cfg.MediaRoot = f.mediaRoot
	}
	if changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if changed("catalog") {
		cfg.Catalog = f.catalog
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if f.debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo().String())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
