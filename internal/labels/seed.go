package labels

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultSeed []byte

type seedFile struct {
	Labels []struct {
		ID   string `yaml:"id"`
		Text string `yaml:"text"`
	} `yaml:"labels"`
}

// ParseSeed decodes a YAML label list. Order follows the document.
func ParseSeed(r io.Reader) ([]Label, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding label seed: %w", err)
	}

	out := make([]Label, 0, len(f.Labels))
	seen := make(map[string]bool, len(f.Labels))
	for i, l := range f.Labels {
		if l.ID == "" {
			return nil, fmt.Errorf("label %d: missing id", i+1)
		}
		if seen[l.ID] {
			return nil, fmt.Errorf("label %d: duplicate id %q", i+1, l.ID)
		}
		seen[l.ID] = true
		out = append(out, Label{ID: l.ID, Text: clip(l.Text), Order: i + 1})
	}
	return out, nil
}

// LoadSeed reads the seed at path, or the built-in defaults when path is
// empty.
func LoadSeed(path string) ([]Label, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening label seed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

func DefaultSeed() []Label {
	var f seedFile
	if err := yaml.Unmarshal(defaultSeed, &f); err != nil {
		panic(fmt.Sprintf("embedded label seed: %v", err))
	}
	out := make([]Label, len(f.Labels))
	for i, l := range f.Labels {
		out[i] = Label{ID: l.ID, Text: clip(l.Text), Order: i + 1}
	}
	return out
}
