package main

import (
	"path/filepath"
	"testing"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/matching"
	"github.com/iwvelando/homeloan/internal/rules"
	"github.com/iwvelando/homeloan/pkg/testutil"
	"go.uber.org/zap/zaptest"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		explicit    bool
		expectError bool
	}{
		{name: "example file", path: filepath.Join("..", "..", "config.yaml.example"), explicit: true},
		{name: "missing default falls back", path: filepath.Join(t.TempDir(), "config.yaml")},
		{name: "missing explicit file", path: filepath.Join(t.TempDir(), "config.yaml"), explicit: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, err := loadConfiguration(tt.path, tt.explicit)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfiguration() error = %v", err)
			}
			if _, ok := conf.Mortgage.Institutions[config.InstitutionHDMF]; !ok {
				t.Error("Expected hdmf in the loaded institutions")
			}
		})
	}
}

func TestOptionalFlags(t *testing.T) {
	set := map[string]bool{"dp": true, "term": true}
	if v := optionalFloat(set, "dp", 0.2); v == nil || *v != 0.2 {
		t.Errorf("Expected dp 0.2, got %v", v)
	}
	if v := optionalFloat(set, "rate", 0.05); v != nil {
		t.Errorf("Expected unset rate, got %v", *v)
	}
	if v := optionalInt(set, "term", 15); v == nil || *v != 15 {
		t.Errorf("Expected term 15, got %v", v)
	}
	if v := optionalInt(set, "dp-term", 12); v != nil {
		t.Errorf("Expected unset dp-term, got %v", *v)
	}
}

// TestRankExampleProducts runs the example catalog and rules end to end the
// way products mode does.
func TestRankExampleProducts(t *testing.T) {
	catalog, err := loadProducts(filepath.Join("..", "..", "products.json.example"))
	if err != nil {
		t.Fatalf("loadProducts() error = %v", err)
	}
	if len(catalog) != 4 {
		t.Fatalf("Expected 4 products, got %d", len(catalog))
	}

	ruleSet, err := rules.LoadRulesFile(filepath.Join("..", "..", "rules.json.example"))
	if err != nil {
		t.Fatalf("LoadRulesFile() error = %v", err)
	}

	logger := zaptest.NewLogger(t)
	matcher := matching.NewMatcher(testutil.NewFactory(t), nil, rules.NewEngine(logger, ruleSet...), logger)
	matches, err := matcher.Rank(matching.Profile{Age: 49, GrossMonthlyIncome: 17000}, catalog)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(matches) != len(catalog) {
		t.Fatalf("Expected %d matches, got %d", len(catalog), len(matches))
	}
	for _, m := range matches {
		if m.Error != "" {
			t.Errorf("Product %s failed: %s", m.Product.ID, m.Error)
		}
	}
}

func TestLoadProductsErrors(t *testing.T) {
	if _, err := loadProducts(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := loadProducts(filepath.Join("..", "..", "config.yaml.example")); err == nil {
		t.Error("Expected error for non-JSON file")
	}
}
