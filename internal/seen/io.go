package seen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jimezsa/hackcli/internal/models"
)

// ReadHackathons reads a JSON array of hackathons from path.
func ReadHackathons(path string) ([]models.Hackathon, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.Hackathon{}, nil
	}

	var hackathons []models.Hackathon
	if err := json.Unmarshal(data, &hackathons); err != nil {
		return nil, err
	}
	if hackathons == nil {
		return []models.Hackathon{}, nil
	}
	return hackathons, nil
}

// ReadHackathonsAllowMissing treats a missing file as empty.
func ReadHackathonsAllowMissing(path string) ([]models.Hackathon, error) {
	hackathons, err := ReadHackathons(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Hackathon{}, nil
		}
		return nil, err
	}
	return hackathons, nil
}

// WriteHackathons writes hackathons as pretty JSON.
func WriteHackathons(path string, hackathons []models.Hackathon) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	if hackathons == nil {
		hackathons = []models.Hackathon{}
	}
	data, err := json.MarshalIndent(hackathons, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Sorted flattens a hackathons partition ordered by URL.
func Sorted(partition map[string]models.Hackathon) []models.Hackathon {
	out := make([]models.Hackathon, 0, len(partition))
	for _, hackathon := range partition {
		out = append(out, hackathon)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}
