// Package phrases holds the user-facing copy of the bot and the quantity
// presets offered on product cards.
package phrases

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Buttons holds button labels.
type Buttons struct {
	Cart     string `yaml:"cart"`
	Back     string `yaml:"back"`
	Menu     string `yaml:"menu"`
	Checkout string `yaml:"checkout"`
	Quantity string `yaml:"quantity"`
	Remove   string `yaml:"remove"`
}

// Phrases is the complete copy deck. Templates use {placeholder} fields
// filled by Format.
type Phrases struct {
	Quantities []int  `yaml:"quantities"`
	Unit       string `yaml:"unit"`

	MenuPrompt string `yaml:"menu_prompt"`
	SendStart  string `yaml:"send_start"`
	Farewell   string `yaml:"farewell"`
	Retry      string `yaml:"retry"`

	ProductCard string `yaml:"product_card"`
	AddedNotice string `yaml:"added_notice"`

	CartLine  string `yaml:"cart_line"`
	CartTotal string `yaml:"cart_total"`
	CartEmpty string `yaml:"cart_empty"`

	EmailPrompt   string `yaml:"email_prompt"`
	EmailInvalid  string `yaml:"email_invalid"`
	EmailRecorded string `yaml:"email_recorded"`

	Buttons Buttons `yaml:"buttons"`
}

// Default returns the embedded copy deck.
func Default() Phrases {
	var p Phrases
	if err := yaml.Unmarshal(defaultYAML, &p); err != nil {
		panic(fmt.Sprintf("phrases: embedded default.yaml is invalid: %v", err))
	}
	return p
}

// Load reads a YAML override file on top of the defaults.
// Keys missing from the file keep their default value. An empty path returns Default().
func Load(path string) (Phrases, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read phrases file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse phrases file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks the quantity presets.
func (p Phrases) Validate() error {
	if len(p.Quantities) == 0 {
		return fmt.Errorf("phrases: at least one quantity preset is required")
	}
	for _, q := range p.Quantities {
		if q < 1 || q > 1000 {
			return fmt.Errorf("phrases: quantity preset %d out of range 1..1000", q)
		}
	}
	return nil
}

// Format replaces {key} placeholders in tmpl with the given values.
// Args are key/value pairs; values are formatted with %v.
func Format(tmpl string, args ...any) string {
	if len(args) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+fmt.Sprint(args[i])+"}", fmt.Sprint(args[i+1]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
