package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// Seed is the built-in dataset the panel starts from.
type Seed struct {
	Applications []Application `yaml:"applications"`
	Patches      []Patch       `yaml:"patches"`
}

var (
	seedOnce sync.Once
	seed     Seed
	seedErr  error
)

// ParseSeed decodes a seed document and defaults every patch status to unknown.
func ParseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	for i := range s.Patches {
		if s.Patches[i].Status == "" {
			s.Patches[i].Status = StatusUnknown
		}
	}
	return s, nil
}

// Fallback returns a fresh copy of the embedded catalog.
func Fallback() (Seed, error) {
	seedOnce.Do(func() {
		seed, seedErr = ParseSeed(fallbackYAML)
	})
	if seedErr != nil {
		return Seed{}, seedErr
	}
	apps := make([]Application, len(seed.Applications))
	copy(apps, seed.Applications)
	return Seed{Applications: apps, Patches: ClonePatches(seed.Patches)}, nil
}
