// Package hotspotd serves the hotspot capability and programme lists over
// HTTP and advertises them with DNS-SD.
package hotspotd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
)

// Catalogue is the set of technologies and programmes a hotspot offers.
type Catalogue struct {
	Name  string      `yaml:"name"`
	Techs []TechEntry `yaml:"techs"`
}

// TechEntry describes one broadcast technology and its programmes.
type TechEntry struct {
	Name       string            `yaml:"name"`
	Info       map[string]string `yaml:"info"`
	Programmes []ProgrammeEntry  `yaml:"programmes"`
}

// ProgrammeEntry is one receivable programme.
type ProgrammeEntry struct {
	Name string            `yaml:"name"`
	URL  string            `yaml:"url"`
	Info map[string]string `yaml:"info"`
}

// LoadCatalogue reads and validates a YAML catalogue file.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes and validates YAML catalogue data.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that names are present and unique and that every
// programme has a URL.
func (c *Catalogue) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Techs))
	for i, t := range c.Techs {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("techs[%d]: name is required", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("techs[%d]: duplicate tech %q", i, name))
		}
		seen[name] = true

		for j, p := range t.Programmes {
			if strings.TrimSpace(p.Name) == "" {
				errs = append(errs, fmt.Errorf("%s.programmes[%d]: name is required", name, j))
			}
			if strings.TrimSpace(p.URL) == "" {
				errs = append(errs, fmt.Errorf("%s.programmes[%d]: url is required", name, j))
			}
		}
	}
	return errors.Join(errs...)
}

// TechList returns the techs in catalogue order.
func (c *Catalogue) TechList() []hotspot.Tech {
	techs := make([]hotspot.Tech, len(c.Techs))
	for i, t := range c.Techs {
		techs[i] = hotspot.Tech{Name: strings.TrimSpace(t.Name), Metadata: t.Info}
	}
	return techs
}

// Programmes returns the programmes of the named tech. ok is false if the
// tech is not in the catalogue.
func (c *Catalogue) Programmes(tech string) (programmes []hotspot.ProgrammeInfo, ok bool) {
	for _, t := range c.Techs {
		if strings.TrimSpace(t.Name) != tech {
			continue
		}
		programmes = make([]hotspot.ProgrammeInfo, len(t.Programmes))
		for i, p := range t.Programmes {
			programmes[i] = hotspot.ProgrammeInfo{
				Name: strings.TrimSpace(p.Name),
				URL:  strings.TrimSpace(p.URL),
				Info: p.Info,
			}
		}
		return programmes, true
	}
	return nil, false
}
