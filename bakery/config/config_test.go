package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

func Test_Default_IsValid(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Chefs)
	assert.Equal(t, 8, cfg.Bakers)
	assert.Len(t, cfg.Prices[core.Sweets], 6)
	assert.Equal(t, 15.0, cfg.PriceOf(core.Cake, 3))
	assert.Equal(t, 30*time.Minute, cfg.Duration())
}

func Test_Parse_AppliesKeysOnTopOfDefaults(t *testing.T) {
	// arrange
	input := `
# staffing
num_chefs=14
num_sellers = 5
complaint_probability=0.35
customer_arrival_min=1
customer_arrival_max=4
supply_min_2=20
supply_max_cheese_salami=80
`

	// act
	cfg, err := config.Parse(strings.NewReader(input))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.Chefs)
	assert.Equal(t, 5, cfg.Sellers)
	assert.Equal(t, 8, cfg.Bakers)
	assert.InDelta(t, 0.35, cfg.ComplaintProbability, 1e-9)
	assert.Equal(t, config.Range{Min: 1, Max: 4}, cfg.Arrival)
	assert.Equal(t, 20, cfg.SupplyMin[core.Butter])
	assert.Equal(t, 80, cfg.SupplyMax[core.CheeseSalami])
}

func Test_Parse_PriceKeysWithUnderscoreKinds(t *testing.T) {
	// arrange
	input := "num_sweet_patisseries=6\nprice_sweet_patisserie_5=7.25\nprice_bread_0=3\n"

	// act
	cfg, err := config.Parse(strings.NewReader(input))

	// assert
	require.NoError(t, err)
	assert.Len(t, cfg.Prices[core.SweetPatisserie], 6)
	assert.Equal(t, 7.25, cfg.PriceOf(core.SweetPatisserie, 5))
	assert.Equal(t, 4.50, cfg.PriceOf(core.SweetPatisserie, 4))
	assert.Equal(t, 3.0, cfg.PriceOf(core.Bread, 0))
}

func Test_Parse_RejectsUnknownKeysAndBadValues(t *testing.T) {
	_, err := config.Parse(strings.NewReader("num_wizards=3\n"))
	assert.ErrorIs(t, err, config.ErrUnknownKey)

	_, err = config.Parse(strings.NewReader("num_chefs=many\n"))
	assert.ErrorIs(t, err, config.ErrInvalidValue)

	_, err = config.Parse(strings.NewReader("price_cake_9=1\n"))
	assert.ErrorIs(t, err, config.ErrUnknownKey)

	_, err = config.Parse(strings.NewReader("just a line\n"))
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func Test_Load_DispatchesOnExtension(t *testing.T) {
	// arrange
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bakery.yaml")
	textPath := filepath.Join(dir, "bakery.conf")

	require.NoError(t, os.WriteFile(yamlPath, []byte("num_bakers: 9\nprofit_threshold: 120.5\ntime_unit: 10ms\n"), 0o600))
	require.NoError(t, os.WriteFile(textPath, []byte("num_bakers=11\n"), 0o600))

	// act
	fromYAML, errYAML := config.Load(yamlPath)
	fromText, errText := config.Load(textPath)

	// assert
	require.NoError(t, errYAML)
	require.NoError(t, errText)
	assert.Equal(t, 9, fromYAML.Bakers)
	assert.Equal(t, 120.5, fromYAML.ProfitThreshold)
	assert.Equal(t, 10*time.Millisecond, fromYAML.TimeUnit)
	assert.Equal(t, 11, fromText.Bakers)
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.conf"))

	assert.ErrorIs(t, err, config.ErrReadingConfigFailed)
}

func Test_ParseYAML_RejectsNestedValues(t *testing.T) {
	_, err := config.ParseYAML(strings.NewReader("num_chefs:\n  - 1\n"))

	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func Test_Validate_JoinsAllProblems(t *testing.T) {
	// arrange
	cfg := config.Default()
	cfg.Sellers = 0
	cfg.Chefs = 3
	cfg.ComplaintProbability = 1.5
	cfg.BakerTime = config.Range{Min: 9, Max: 2}

	// act
	err := cfg.Validate()

	// assert
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "num_sellers")
	assert.Contains(t, err.Error(), "num_chefs")
	assert.Contains(t, err.Error(), "complaint_probability")
	assert.Contains(t, err.Error(), "baker_time")
}

func Test_Validate_SellerStuckTimeoutOutlastsService(t *testing.T) {
	// arrange
	tooShort := config.Default()
	tooShort.Timings.SellerStuckTimeout = float64(tooShort.Timings.ServiceTime.Max)
	zero := config.Default()
	zero.Timings.SellerStuckTimeout = 0

	// act
	tooShortErr := tooShort.Validate()
	zeroErr := zero.Validate()

	// assert
	require.ErrorIs(t, tooShortErr, config.ErrInvalidConfig)
	assert.Contains(t, tooShortErr.Error(), "seller stuck timeout")
	require.ErrorIs(t, zeroErr, config.ErrInvalidConfig)
}

func Test_Units_ScalesByTimeUnit(t *testing.T) {
	cfg := config.Default()
	cfg.TimeUnit = 10 * time.Millisecond

	assert.Equal(t, 5*time.Millisecond, cfg.Units(0.5))
	assert.Equal(t, 30*time.Millisecond, cfg.UnitsOf(3))
}
