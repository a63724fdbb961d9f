package seen

import (
	"path/filepath"
	"testing"

	"github.com/jimezsa/hackcli/internal/models"
)

func TestReadWriteHackathons(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hackathons.json")

	hackathons := []models.Hackathon{{Name: "BCHacks", URL: "https://bchacks.devpost.com/", Prize: "USD5,000"}}
	if err := WriteHackathons(path, hackathons); err != nil {
		t.Fatalf("WriteHackathons() error = %v", err)
	}

	got, err := ReadHackathons(path)
	if err != nil {
		t.Fatalf("ReadHackathons() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected len=1, got %d", len(got))
	}
	if got[0] != hackathons[0] {
		t.Fatalf("unexpected hackathon read back: %+v", got[0])
	}
}

func TestReadHackathonsAllowMissing(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")

	got, err := ReadHackathonsAllowMissing(missing)
	if err != nil {
		t.Fatalf("ReadHackathonsAllowMissing() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty hackathons for missing file, got %d", len(got))
	}
}

func TestSorted(t *testing.T) {
	got := Sorted(map[string]models.Hackathon{
		"https://b": {URL: "https://b"},
		"https://a": {URL: "https://a"},
	})
	if len(got) != 2 || got[0].URL != "https://a" || got[1].URL != "https://b" {
		t.Fatalf("Sorted() = %+v", got)
	}
}
