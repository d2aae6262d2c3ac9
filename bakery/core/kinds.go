package core

import (
	"errors"
	"fmt"
)

var ErrUnknownItemKind = errors.New("unknown item kind")
var ErrUnknownSupplyKind = errors.New("unknown supply kind")

// ItemKind is a product category held in inventory.
type ItemKind int

const (
	Bread ItemKind = iota
	Cake
	Sandwich
	Sweets
	SweetPatisserie
	SavoryPatisserie
	Paste
)

// NumItemKinds is the number of item kinds, Paste included.
const NumItemKinds = 7

var itemKindNames = [NumItemKinds]string{
	"bread",
	"cake",
	"sandwich",
	"sweets",
	"sweet_patisserie",
	"savory_patisserie",
	"paste",
}

// ItemKinds returns all item kinds in declaration order.
func ItemKinds() []ItemKind {
	return []ItemKind{Bread, Cake, Sandwich, Sweets, SweetPatisserie, SavoryPatisserie, Paste}
}

// SellableItemKinds returns the kinds customers may ask for. Paste is an internal intermediate.
func SellableItemKinds() []ItemKind {
	return []ItemKind{Bread, Cake, Sandwich, Sweets, SweetPatisserie, SavoryPatisserie}
}

func (k ItemKind) String() string {
	if k < 0 || int(k) >= NumItemKinds {
		return fmt.Sprintf("item_kind(%d)", int(k))
	}

	return itemKindNames[k]
}

// Sellable reports whether customers may request the kind.
func (k ItemKind) Sellable() bool {
	return k >= Bread && k < Paste
}

// ParseItemKind maps the snake_case name used in configuration files to an ItemKind.
func ParseItemKind(name string) (ItemKind, error) {
	for i, n := range itemKindNames {
		if n == name {
			return ItemKind(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownItemKind, name)
}

// SupplyKind is a raw material bought by restockers.
type SupplyKind int

const (
	Wheat SupplyKind = iota
	Yeast
	Butter
	Milk
	SugarSalt
	SweetItems
	CheeseSalami
)

// NumSupplyKinds is the number of supply kinds.
const NumSupplyKinds = 7

var supplyKindNames = [NumSupplyKinds]string{
	"wheat",
	"yeast",
	"butter",
	"milk",
	"sugar_salt",
	"sweet_items",
	"cheese_salami",
}

// SupplyKinds returns all supply kinds in declaration order.
func SupplyKinds() []SupplyKind {
	return []SupplyKind{Wheat, Yeast, Butter, Milk, SugarSalt, SweetItems, CheeseSalami}
}

func (s SupplyKind) String() string {
	if s < 0 || int(s) >= NumSupplyKinds {
		return fmt.Sprintf("supply_kind(%d)", int(s))
	}

	return supplyKindNames[s]
}

// ParseSupplyKind maps a snake_case name to a SupplyKind.
func ParseSupplyKind(name string) (SupplyKind, error) {
	for i, n := range supplyKindNames {
		if n == name {
			return SupplyKind(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownSupplyKind, name)
}
