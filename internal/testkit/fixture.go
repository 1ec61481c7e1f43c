package testkit

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Fixture is a TOML elaboration scenario: declarations given as a list of
// item strings, a free-form source block, or both.
type Fixture struct {
	Name   string   `toml:"name"`
	Source string   `toml:"source"`
	Items  []string `toml:"items"`
}

func LoadFixture(path string) (Fixture, error) {
	var f Fixture
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return Fixture{}, errors.Wrapf(err, "fixture %s", path)
	}
	if f.Source == "" && len(f.Items) == 0 {
		return Fixture{}, errors.Errorf("fixture %s declares nothing", path)
	}
	return f, nil
}

// Declarations joins the fixture's declaration text into one batch.
func (f Fixture) Declarations() string {
	parts := make([]string, 0, len(f.Items)+1)
	parts = append(parts, f.Items...)
	if f.Source != "" {
		parts = append(parts, f.Source)
	}
	return strings.Join(parts, "\n")
}
