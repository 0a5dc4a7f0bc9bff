package shop

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
)

// Price is the shop entry for one resource key: one purchased unit grants
// Amount of the resource and costs Cost coins.
type Price struct {
	Enabled bool  `yaml:"enabled" json:"enabled"`
	Amount  int64 `yaml:"amount" json:"amount"`
	Cost    int64 `yaml:"cost" json:"cost"`
}

// PriceTable is the process-wide shop configuration, loaded once at startup
// and passed explicitly into the shop service. It is read-only at request time.
type PriceTable struct {
	Prices    map[ledger.Key]Price `yaml:"prices" json:"prices"`
	MaxLimits map[ledger.Key]int64 `yaml:"max_limits" json:"max_limits"`
}

// Lookup returns the price entry for a key.
func (t *PriceTable) Lookup(key ledger.Key) (Price, bool) {
	p, ok := t.Prices[key]
	return p, ok
}

// MaxLimit returns the configured ceiling for a key. A key without an entry
// has a zero cap and cannot be purchased.
func (t *PriceTable) MaxLimit(key ledger.Key) int64 {
	return t.MaxLimits[key]
}

// Validate rejects tables with unknown keys or negative numbers.
func (t *PriceTable) Validate() error {
	for key, p := range t.Prices {
		if _, err := ledger.ParseKey(string(key)); err != nil {
			return fmt.Errorf("prices: %w", err)
		}
		if p.Amount < 0 || p.Cost < 0 {
			return fmt.Errorf("prices.%s: amount and cost must be non-negative", key)
		}
	}
	for key, max := range t.MaxLimits {
		if _, err := ledger.ParseKey(string(key)); err != nil {
			return fmt.Errorf("max_limits: %w", err)
		}
		if max < 0 {
			return fmt.Errorf("max_limits.%s: must be non-negative", key)
		}
	}
	return nil
}

// LoadTable reads and validates a price table from a YAML file.
func LoadTable(path string) (*PriceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shop config: %w", err)
	}

	var t PriceTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse shop config: %w", err)
	}
	if t.Prices == nil {
		t.Prices = make(map[ledger.Key]Price)
	}
	if t.MaxLimits == nil {
		t.MaxLimits = make(map[ledger.Key]int64)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shop config: %w", err)
	}
	return &t, nil
}
