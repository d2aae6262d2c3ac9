package core

// Recipe describes what a production role consumes for one unit of output.
// ItemInput is set for roles that consume an item from inventory before touching supplies.
type Recipe struct {
	Role      Role
	Output    ItemKind
	Supplies  []SupplyKind
	ItemInput *ItemKind
}

func itemKindPtr(k ItemKind) *ItemKind {
	return &k
}

var recipes = map[Role]Recipe{
	PasteTeam:            {Role: PasteTeam, Output: Paste, Supplies: []SupplyKind{Wheat, Yeast, Butter, Milk}},
	BreadTeam:            {Role: BreadTeam, Output: Bread, Supplies: []SupplyKind{Wheat, Yeast}},
	CakeTeam:             {Role: CakeTeam, Output: Cake, Supplies: []SupplyKind{Wheat, Butter, Milk, SugarSalt, SweetItems}},
	SweetsTeam:           {Role: SweetsTeam, Output: Sweets, Supplies: []SupplyKind{SugarSalt, Milk, Butter, SweetItems}},
	SandwichTeam:         {Role: SandwichTeam, Output: Sandwich, Supplies: []SupplyKind{CheeseSalami}, ItemInput: itemKindPtr(Bread)},
	SweetPatisserieTeam:  {Role: SweetPatisserieTeam, Output: SweetPatisserie, Supplies: []SupplyKind{SweetItems}, ItemInput: itemKindPtr(Paste)},
	SavoryPatisserieTeam: {Role: SavoryPatisserieTeam, Output: SavoryPatisserie, Supplies: []SupplyKind{CheeseSalami}, ItemInput: itemKindPtr(Paste)},
}

// RecipeFor returns the recipe of a production role. Finishing roles have none.
func RecipeFor(role Role) (Recipe, bool) {
	r, ok := recipes[role]

	return r, ok
}
