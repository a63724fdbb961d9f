package main

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jimezsa/hackcli/internal/config"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("invalid configuration: %w", config.ErrMissingGeocodeKey), want: exitConfig},
		{err: fmt.Errorf("invalid configuration: %w", config.ErrUnknownBackend), want: exitConfig},
		{err: errors.New("listings unreachable"), want: exitFailure},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRunVersion(t *testing.T) {
	t.Setenv("HACKCLI_CONFIG", filepath.Join(t.TempDir(), "config.json"))
	var out, errOut bytes.Buffer
	if code := run([]string{"version"}, &out, &errOut); code != exitOK {
		t.Fatalf("run() = %d, stderr %q", code, errOut.String())
	}
	if !strings.HasPrefix(out.String(), "hackcli ") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"nope"}, &out, &errOut); code != exitFailure {
		t.Fatalf("run() = %d, want %d", code, exitFailure)
	}
}

func TestNewLoggerTagsApp(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)
	logger.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"app":"hackcli"`) {
		t.Fatalf("log line = %q", buf.String())
	}
}
