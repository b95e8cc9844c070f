package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/edumarques81/pyramidplay/internal/config"
)

// parse runs the flag parsing of the named subcommand without executing it.
func parse(t *testing.T, args ...string) (*cobra.Command, *flags) {
	t.Helper()
	f := &flags{}
	root := &cobra.Command{Use: "pyramidplay"}
	root.PersistentFlags().StringVar(&f.envFile, "env", filepath.Join(t.TempDir(), "missing.env"), "")
	root.PersistentFlags().StringVar(&f.output, "output", "", "")
	root.PersistentFlags().IntVar(&f.mpdPort, "mpd-port", 0, "")
	root.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "")
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "")
	serve := newServeCmd(f)
	root.AddCommand(serve)

	cmd, rest, err := root.Find(args)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if err := cmd.ParseFlags(rest); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, f
}

func TestLoadConfigAppliesChangedFlags(t *testing.T) {
	t.Setenv("PP_MPD_PORT", "6800")
	t.Setenv("PP_OUTPUT", "mpd")

	cmd, f := parse(t, "serve", "--output", "speaker", "--port", "8080", "--debug")
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Output != config.OutputSpeaker || cfg.Port != "8080" {
		t.Errorf("flags should override the environment: output=%q port=%q", cfg.Output, cfg.Port)
	}
	if cfg.MPDPort != 6800 {
		t.Errorf("unset flags should keep the environment value, got %d", cfg.MPDPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("--debug should force debug logging, got %q", cfg.LogLevel)
	}
}

func TestLoadConfigRejectsInvalidOutput(t *testing.T) {
	cmd, f := parse(t, "serve", "--output", "alsa")
	if _, err := loadConfig(cmd, f); err == nil {
		t.Error("expected a validation error")
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "console", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing %s subcommand", name)
		}
	}
	if root.PersistentFlags().Lookup("mpd-host") == nil {
		t.Error("missing --mpd-host flag")
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "PyramidPlay v") {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestNewAppFailsWithoutOutput(t *testing.T) {
	cfg := &config.Config{
		Port:    "3001",
		Output:  config.OutputMPD,
		MPDHost: "127.0.0.1",
		MPDPort: 1,
		DataDir: t.TempDir(),
	}
	if _, err := newApp(t.Context(), cfg); err == nil {
		t.Error("expected newApp to fail when MPD is unreachable")
	}
}
