package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/jimezsa/hackcli/internal/cmd"
	"github.com/jimezsa/hackcli/internal/config"
	"github.com/jimezsa/hackcli/internal/ui"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const (
	exitOK = iota
	exitFailure
	exitConfig
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cli := cmd.NewCLI()
	applyEnvDefaults(cli)
	versionString := buildVersion()

	parser, err := kong.New(cli,
		kong.Name("hackcli"),
		kong.Description("Fetch hackathon listings, keep the ones in your region, and cache what was seen."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": versionString},
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		ui.New(stdout, stderr, ui.NormalizeColorMode(os.Getenv("HACKCLI_COLOR")), false).Errorf("%v", err)
		return exitFailure
	}

	logger := newLogger(stderr, cli.Verbose)

	configPath, err := config.ConfigPath()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	configDir, err := config.ConfigDir()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	logger.Debug().
		Str("config", configPath).
		Str("cache_backend", cfg.Cache.Backend).
		Str("region", cfg.Geocode.Division+"/"+cfg.Geocode.Country).
		Msg("configuration loaded")

	colorMode := ui.NormalizeColorMode(cli.Color)
	userInterface := ui.New(stdout, stderr, colorMode, cli.JSON || cli.Plain)

	runCtx := &cmd.Context{
		Out:        stdout,
		Err:        stderr,
		UI:         userInterface,
		Config:     cfg,
		ConfigDir:  configDir,
		Logger:     logger,
		Verbose:    cli.Verbose,
		JSONOutput: cli.JSON,
		PlainText:  cli.Plain,
		Version:    versionString,
		ColorMode:  colorMode,
	}

	if err := kctx.Run(runCtx); err != nil {
		userInterface.Errorf("%v", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode separates configuration that can never work from runtime failures.
func exitCode(err error) int {
	if errors.Is(err, config.ErrMissingGeocodeKey) || errors.Is(err, config.ErrUnknownBackend) {
		return exitConfig
	}
	return exitFailure
}

// newLogger writes JSON lines unless HACKCLI_LOG_FORMAT=console.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(strings.TrimSpace(os.Getenv("HACKCLI_LOG_FORMAT")), "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Str("app", "hackcli").Logger()
}

// buildVersion prefers ldflags and falls back to the VCS stamp of the build.
func buildVersion() string {
	rev, when := commit, date
	if rev == "" || when == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch {
				case setting.Key == "vcs.revision" && rev == "":
					rev = shortRevision(setting.Value)
				case setting.Key == "vcs.time" && when == "":
					when = setting.Value
				}
			}
		}
	}

	var parts []string
	for _, part := range []string{rev, when} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, strings.Join(parts, ", "))
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func applyEnvDefaults(cli *cmd.CLI) {
	if envBool("HACKCLI_JSON") {
		cli.JSON = true
	}
	if envBool("HACKCLI_VERBOSE") {
		cli.Verbose = true
	}
	if value := os.Getenv("HACKCLI_COLOR"); value != "" {
		cli.Color = value
	}
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
