package loadgen

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/telcoguard/internal/adapters/remote"
	"github.com/okian/telcoguard/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// fixtureFile is the YAML layout accepted by LoadFixtures.
type fixtureFile struct {
	Profiles []remote.WireProfile `yaml:"profiles"`
}

// LoadFixtures reads wire profiles from a YAML file.
func LoadFixtures(path string) ([]model.CustomerProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFixtures, err)
	}
	defer f.Close()
	return DecodeFixtures(f)
}

// DecodeFixtures parses and validates fixture profiles from r.
func DecodeFixtures(r io.Reader) ([]model.CustomerProfile, error) {
	var ff fixtureFile
	if err := yaml.NewDecoder(r).Decode(&ff); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFixtures, err)
	}
	if len(ff.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	out := make([]model.CustomerProfile, len(ff.Profiles))
	for i, w := range ff.Profiles {
		p, err := remote.DecodeProfile(w)
		if err != nil {
			return nil, fmt.Errorf("%w: profiles[%d]: %w", ErrBadFixtures, i, err)
		}
		out[i] = p
	}
	return out, nil
}
