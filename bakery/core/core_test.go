package core_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

func Test_ParseItemKind_RoundTripsEveryName(t *testing.T) {
	for _, kind := range core.ItemKinds() {
		parsed, err := core.ParseItemKind(kind.String())

		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
}

func Test_ParseItemKind_RejectsUnknownName(t *testing.T) {
	_, err := core.ParseItemKind("croissant")

	assert.ErrorIs(t, err, core.ErrUnknownItemKind)
}

func Test_ParseSupplyKind_HandlesUnderscoreNames(t *testing.T) {
	parsed, err := core.ParseSupplyKind("cheese_salami")

	require.NoError(t, err)
	assert.Equal(t, core.CheeseSalami, parsed)
}

func Test_SellableItemKinds_ExcludesPaste(t *testing.T) {
	assert.NotContains(t, core.SellableItemKinds(), core.Paste)
	assert.False(t, core.Paste.Sellable())
	assert.True(t, core.Bread.Sellable())
}

func Test_Role_Discipline(t *testing.T) {
	for _, r := range core.ProductionRoles() {
		assert.Equal(t, core.Production, r.Discipline(), r.String())
	}

	for _, r := range core.FinishingRoles() {
		assert.Equal(t, core.Finishing, r.Discipline(), r.String())
	}

	assert.Len(t, append(core.ProductionRoles(), core.FinishingRoles()...), core.NumRoles)
}

func Test_RecipeFor_EveryProductionRoleHasOne(t *testing.T) {
	for _, r := range core.ProductionRoles() {
		recipe, ok := core.RecipeFor(r)

		require.True(t, ok, r.String())
		produced, _ := r.ProducedKind()
		assert.Equal(t, produced, recipe.Output)
		assert.NotEmpty(t, recipe.Supplies)
	}

	_, ok := core.RecipeFor(core.BreadOven)
	assert.False(t, ok)
}

func Test_RecipeFor_ItemInputs(t *testing.T) {
	sandwich, _ := core.RecipeFor(core.SandwichTeam)
	sweetPat, _ := core.RecipeFor(core.SweetPatisserieTeam)
	bread, _ := core.RecipeFor(core.BreadTeam)

	require.NotNil(t, sandwich.ItemInput)
	assert.Equal(t, core.Bread, *sandwich.ItemInput)
	require.NotNil(t, sweetPat.ItemInput)
	assert.Equal(t, core.Paste, *sweetPat.ItemInput)
	assert.Nil(t, bread.ItemInput)
}

func Test_RoleForKind(t *testing.T) {
	assert.Equal(t, core.SavoryPatisserieTeam, core.RoleForKind(core.SavoryPatisserie))
	assert.Equal(t, core.BreadTeam, core.RoleForKind(core.Bread))
}

func Test_BuildItemSold_ComputesAmountAndNormalizesTime(t *testing.T) {
	// arrange
	local := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3600))

	// act
	event := core.BuildItemSold(uuid.New(), uuid.New(), core.Cake, 1, 3, 3, 15.0, local)

	// assert
	assert.Equal(t, 45.0, event.Amount)
	assert.Equal(t, "cake", event.ItemKind)
	assert.Equal(t, time.UTC, event.HasOccurredAt().Location())
	assert.Equal(t, 123456000, event.HasOccurredAt().Nanosecond())
	assert.Equal(t, core.ItemSoldEventType, event.EventType())
}

func Test_BuildCustomerLeft_UsesOutcomeName(t *testing.T) {
	event := core.BuildCustomerLeft(uuid.New(), core.LeavingMissingItems, core.Bread, 0, 2, time.Second, time.Now())

	assert.Equal(t, "missing_items", event.Outcome)
}
