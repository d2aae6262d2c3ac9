package core

import "fmt"

// Discipline groups the roles whose worker counts are redistributed among each other.
type Discipline int

const (
	Production Discipline = iota
	Finishing
)

func (d Discipline) String() string {
	switch d {
	case Production:
		return "production"
	case Finishing:
		return "finishing"
	default:
		return fmt.Sprintf("discipline(%d)", int(d))
	}
}

// Role is a reassignable worker team. Restockers and sellers have fixed headcounts and no Role.
type Role int

const (
	PasteTeam Role = iota
	CakeTeam
	SandwichTeam
	SweetsTeam
	SweetPatisserieTeam
	SavoryPatisserieTeam
	BreadTeam
	CakesAndSweetsOven
	PatisserieOven
	BreadOven
)

// NumRoles is the number of reassignable roles over both disciplines.
const NumRoles = 10

var roleNames = [NumRoles]string{
	"paste_team",
	"cake_team",
	"sandwich_team",
	"sweets_team",
	"sweet_patisserie_team",
	"savory_patisserie_team",
	"bread_team",
	"cakes_and_sweets_oven",
	"patisserie_oven",
	"bread_oven",
}

func (r Role) String() string {
	if r < 0 || int(r) >= NumRoles {
		return fmt.Sprintf("role(%d)", int(r))
	}

	return roleNames[r]
}

func (r Role) Discipline() Discipline {
	if r >= CakesAndSweetsOven {
		return Finishing
	}

	return Production
}

// ProductionRoles returns the chef teams in their fixed order.
func ProductionRoles() []Role {
	return []Role{PasteTeam, CakeTeam, SandwichTeam, SweetsTeam, SweetPatisserieTeam, SavoryPatisserieTeam, BreadTeam}
}

// FinishingRoles returns the baker teams in their fixed order.
func FinishingRoles() []Role {
	return []Role{CakesAndSweetsOven, PatisserieOven, BreadOven}
}

// RolesOf returns the roles of one discipline.
func RolesOf(d Discipline) []Role {
	if d == Finishing {
		return FinishingRoles()
	}

	return ProductionRoles()
}

// ProducedKind returns the item kind a production role creates.
func (r Role) ProducedKind() (ItemKind, bool) {
	switch r {
	case PasteTeam:
		return Paste, true
	case CakeTeam:
		return Cake, true
	case SandwichTeam:
		return Sandwich, true
	case SweetsTeam:
		return Sweets, true
	case SweetPatisserieTeam:
		return SweetPatisserie, true
	case SavoryPatisserieTeam:
		return SavoryPatisserie, true
	case BreadTeam:
		return Bread, true
	default:
		return 0, false
	}
}

// FinishedKinds returns the item kinds an oven takes, in the order it looks for stock.
func (r Role) FinishedKinds() []ItemKind {
	switch r {
	case CakesAndSweetsOven:
		return []ItemKind{Cake, Sweets}
	case PatisserieOven:
		return []ItemKind{SweetPatisserie, SavoryPatisserie}
	case BreadOven:
		return []ItemKind{Bread}
	default:
		return nil
	}
}

// RoleForKind returns the production role that creates the kind.
func RoleForKind(kind ItemKind) Role {
	for _, r := range ProductionRoles() {
		if produced, _ := r.ProducedKind(); produced == kind {
			return r
		}
	}

	return PasteTeam
}
