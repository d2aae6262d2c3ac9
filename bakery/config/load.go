package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

var ErrReadingConfigFailed = errors.New("reading the configuration failed")
var ErrUnknownKey = errors.New("unknown configuration key")
var ErrInvalidValue = errors.New("invalid configuration value")

type entry struct {
	line  int
	key   string
	value string
}

// Load reads a configuration file on top of Default(). Files ending in .yaml or .yml are parsed as YAML.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Join(ErrReadingConfigFailed, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return Parse(f)
	}
}

// Parse reads the key=value format.
func Parse(r io.Reader) (Config, error) {
	var entries []entry

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		key, value, found := strings.Cut(text, "=")
		if !found {
			return Config{}, fmt.Errorf("%w: line %d has no '='", ErrInvalidValue, line)
		}

		entries = append(entries, entry{line: line, key: strings.TrimSpace(key), value: strings.TrimSpace(value)})
	}

	if err := scanner.Err(); err != nil {
		return Config{}, errors.Join(ErrReadingConfigFailed, err)
	}

	return apply(Default(), entries)
}

// ParseYAML reads a flat YAML mapping using the same keys as the key=value format.
func ParseYAML(r io.Reader) (Config, error) {
	var doc yaml.Node

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Default(), nil
		}

		return Config{}, errors.Join(ErrReadingConfigFailed, err)
	}

	if len(doc.Content) == 0 {
		return Default(), nil
	}

	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return Config{}, fmt.Errorf("%w: the document must be a mapping", ErrInvalidValue)
	}

	entries := make([]entry, 0, len(mapping.Content)/2)

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k, v := mapping.Content[i], mapping.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return Config{}, fmt.Errorf("%w: line %d: %s must be a scalar", ErrInvalidValue, v.Line, k.Value)
		}

		entries = append(entries, entry{line: k.Line, key: k.Value, value: v.Value})
	}

	return apply(Default(), entries)
}

// apply sets flavor counts and scalar keys first, then prices, so price keys may address flavors the same
// file added.
func apply(cfg Config, entries []entry) (Config, error) {
	var prices []entry

	for _, e := range entries {
		if strings.HasPrefix(e.key, "price_") {
			prices = append(prices, e)
			continue
		}

		if err := cfg.set(e.key, e.value); err != nil {
			return Config{}, fmt.Errorf("line %d: %w", e.line, err)
		}
	}

	cfg.normalizePrices()

	for _, e := range prices {
		if err := cfg.setPrice(e.key, e.value); err != nil {
			return Config{}, fmt.Errorf("line %d: %w", e.line, err)
		}
	}

	return cfg, nil
}

func (c *Config) intFields() map[string]*int {
	return map[string]*int{
		"num_bread_categories":       &c.Flavors[core.Bread],
		"num_sandwich_types":         &c.Flavors[core.Sandwich],
		"num_cake_flavors":           &c.Flavors[core.Cake],
		"num_sweets_flavors":         &c.Flavors[core.Sweets],
		"num_sweet_patisseries":      &c.Flavors[core.SweetPatisserie],
		"num_savory_patisseries":     &c.Flavors[core.SavoryPatisserie],
		"num_chefs":                  &c.Chefs,
		"num_bakers":                 &c.Bakers,
		"num_sellers":                &c.Sellers,
		"num_supply_chain":           &c.Restockers,
		"max_complaints":             &c.MaxComplaints,
		"max_frustrated_customers":   &c.MaxFrustrated,
		"max_missing_items_requests": &c.MaxMissingRequests,
		"simulation_time_minutes":    &c.SimulationMinutes,
		"chef_production_time_min":   &c.ChefTime.Min,
		"chef_production_time_max":   &c.ChefTime.Max,
		"baker_time_min":             &c.BakerTime.Min,
		"baker_time_max":             &c.BakerTime.Max,
		"customer_arrival_min":       &c.Arrival.Min,
		"customer_arrival_max":       &c.Arrival.Max,
		"customer_batch_min":         &c.Batch.Min,
		"customer_batch_max":         &c.Batch.Max,
		"purchase_quantity_min":      &c.Purchase.Min,
		"purchase_quantity_max":      &c.Purchase.Max,
		"customer_patience":          &c.Patience,
		"quality_threshold":          &c.QualityThreshold,
		"max_live_customers":         &c.MaxLiveCustomers,
	}
}

func (c *Config) floatFields() map[string]*float64 {
	return map[string]*float64{
		"profit_threshold":               &c.ProfitThreshold,
		"complaint_probability":          &c.ComplaintProbability,
		"leave_on_complaint_probability": &c.LeaveOnComplaintProbability,
		"accept_partial_probability":     &c.AcceptPartialProbability,
	}
}

func (c *Config) set(key, value string) error {
	if target, ok := c.intFields()[key]; ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}

		*target = n

		return nil
	}

	if target, ok := c.floatFields()[key]; ok {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}

		*target = f

		return nil
	}

	if key == "time_unit" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}

		c.TimeUnit = d

		return nil
	}

	if rest, ok := strings.CutPrefix(key, "supply_min_"); ok {
		return c.setSupplyBound(c.SupplyMin[:], key, rest, value)
	}

	if rest, ok := strings.CutPrefix(key, "supply_max_"); ok {
		return c.setSupplyBound(c.SupplyMax[:], key, rest, value)
	}

	return fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// setSupplyBound accepts both the numeric index ("supply_min_3") and the supply name ("supply_min_milk").
func (c *Config) setSupplyBound(bounds []int, key, suffix, value string) error {
	idx, err := strconv.Atoi(suffix)
	if err != nil {
		kind, perr := core.ParseSupplyKind(suffix)
		if perr != nil {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}

		idx = int(kind)
	}

	if idx < 0 || idx >= len(bounds) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}

	bounds[idx] = n

	return nil
}

// setPrice handles price_<kind>_<flavor>. Kind names contain underscores, so the flavor is split at the last one.
func (c *Config) setPrice(key, value string) error {
	rest := strings.TrimPrefix(key, "price_")

	sep := strings.LastIndex(rest, "_")
	if sep < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	kind, err := core.ParseItemKind(rest[:sep])
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	flavor, err := strconv.Atoi(rest[sep+1:])
	if err != nil || flavor < 0 || flavor >= len(c.Prices[kind]) {
		return fmt.Errorf("%w: %s has no such flavor", ErrUnknownKey, key)
	}

	price, err := strconv.ParseFloat(value, 64)
	if err != nil || price < 0 {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}

	c.Prices[kind][flavor] = price

	return nil
}
