package cfg

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile is the optional startup channel list. Channels listed here are
// registered on boot if they are not tracked yet; they are never removed.
type SeedFile struct {
	Channels []string `yaml:"channels"`
}

// LoadSeeds reads the channel seed file. A missing file is not an error.
func LoadSeeds(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var seeds SeedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse channels file: %w", err)
	}

	urls := make([]string, 0, len(seeds.Channels))
	for _, raw := range seeds.Channels {
		url := strings.TrimSpace(raw)
		if url != "" {
			urls = append(urls, url)
		}
	}
	return urls, nil
}
