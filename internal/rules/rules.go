/*
Package rules holds the fixed business rules requirements are validated
against, a deterministic policy pre-check over them, and a reloadable store.
*/
package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// ProductVision describes what the product is and who it is for.
type ProductVision struct {
	Name           string `yaml:"name" json:"name" validate:"required"`
	Tagline        string `yaml:"tagline" json:"tagline"`
	TargetAudience string `yaml:"target_audience" json:"target_audience"`
}

// MonetizationModel describes pricing tiers.
type MonetizationModel struct {
	Model           string   `yaml:"model" json:"model" validate:"required"`
	FreeTierLimits  string   `yaml:"free_tier_limits" json:"free_tier_limits"`
	PremiumFeatures []string `yaml:"premium_features" json:"premium_features"`
}

// TechnicalConstraints lists scope limits.
type TechnicalConstraints struct {
	Platforms    string `yaml:"platforms" json:"platforms"`
	Integrations string `yaml:"integrations" json:"integrations"`
}

// Keywords drive the policy pre-check. They are not shown to the model.
type Keywords struct {
	OutOfScope []string            `yaml:"out_of_scope" json:"out_of_scope"`
	PostV1     []string            `yaml:"post_v1" json:"post_v1"`
	Premium    map[string][]string `yaml:"premium" json:"premium"`
}

// BusinessRules is the strategy every requirement is checked against.
type BusinessRules struct {
	ProductVision        ProductVision        `yaml:"product_vision" json:"product_vision"`
	MonetizationModel    MonetizationModel    `yaml:"monetization_model" json:"monetization_model"`
	TechnicalConstraints TechnicalConstraints `yaml:"technical_constraints" json:"technical_constraints"`
	Keywords             Keywords             `yaml:"policy_keywords" json:"-"`
}

// Default returns the built-in FinTrack Pro rules.
func Default() *BusinessRules {
	r, err := Parse(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded business rules are invalid: %v", err))
	}
	return r
}

// Parse decodes and validates a YAML rules document.
func Parse(data []byte) (*BusinessRules, error) {
	var r BusinessRules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse business rules: %w", err)
	}
	if err := validator.New().Struct(&r); err != nil {
		return nil, fmt.Errorf("validate business rules: %w", err)
	}
	return &r, nil
}

// Load reads a rules file from fs.
func Load(fs afero.Fs, path string) (*BusinessRules, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read business rules: %w", err)
	}
	return Parse(data)
}

// JSON renders the rules (without policy keywords) as indented JSON for prompts.
func (r *BusinessRules) JSON() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// YAML renders the full rules document.
func (r *BusinessRules) YAML() (string, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode business rules: %w", err)
	}
	return string(data), nil
}
