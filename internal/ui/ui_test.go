package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestNormalizeColorMode(t *testing.T) {
	cases := map[string]ColorMode{"ALWAYS": ColorAlways, " never ": ColorNever, "": ColorAuto, "rainbow": ColorAuto}
	for input, want := range cases {
		if got := NormalizeColorMode(input); got != want {
			t.Errorf("NormalizeColorMode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestPlainOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut, ColorAlways, true)
	if u.ColorEnabled {
		t.Fatalf("disableColor should win over ColorAlways")
	}

	u.Infof("hello %s\n", "world")
	u.Errorf("bad %d", 1)
	u.Summary(5, 1, 4, true)
	u.Summary(5, 0, 5, false)

	if out.String() != "hello world\n" {
		t.Fatalf("stdout = %q", out.String())
	}
	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	if len(lines) != 3 || lines[0] != "bad 1" || lines[1] != "fetched 5, accepted 1, rejected 4" || !strings.HasSuffix(lines[2], "(cache not saved)") {
		t.Fatalf("stderr = %q", errOut.String())
	}
}
