package rules

import (
	"math"

	"github.com/morwengames/chronicle/model"
)

// Attribute names.
const (
	AttrCourage      = "courage"
	AttrSagacity     = "sagacity"
	AttrIntuition    = "intuition"
	AttrCharisma     = "charisma"
	AttrDexterity    = "dexterity"
	AttrAgility      = "agility"
	AttrConstitution = "constitution"
	AttrStrength     = "strength"
)

// AttributeNames lists the eight core attributes in sheet order.
var AttributeNames = []string{
	AttrCourage, AttrSagacity, AttrIntuition, AttrCharisma,
	AttrDexterity, AttrAgility, AttrConstitution, AttrStrength,
}

// Base value names. The first six are derived from attributes; the rest
// are manually tracked and never touched by DeriveBaseValues.
const (
	BaseHealthPoints     = "healthPoints"
	BaseStamina          = "stamina"
	BaseInitiative       = "initiativeBaseValue"
	BaseAttack           = "attackBaseValue"
	BaseParade           = "paradeBaseValue"
	BaseRangedAttack     = "rangedAttackBaseValue"
	BaseArmorLevel       = "armorLevel"
	BaseLuckPoints       = "luckPoints"
	BaseBonusActions     = "bonusActionsPerCombatRound"
	BaseLegendaryActions = "legendaryActions"
)

// baseValueFormula computes a derived base value from effective attribute
// values (current+mod). Formulas are total: missing attributes count as 0.
type baseValueFormula func(attr func(string) int) int

var baseValueFormulas = map[string]baseValueFormula{
	BaseHealthPoints: func(a func(string) int) int {
		return round(float64(2*a(AttrConstitution)+a(AttrStrength)) / 2)
	},
	BaseStamina: func(a func(string) int) int {
		return round(float64(a(AttrCourage)+a(AttrConstitution)+a(AttrAgility)) / 2)
	},
	BaseInitiative: func(a func(string) int) int {
		return round(float64(2*a(AttrCourage)+a(AttrIntuition)+a(AttrAgility)) / 5)
	},
	BaseAttack: func(a func(string) int) int {
		return round(float64(a(AttrCourage)+a(AttrAgility)+a(AttrStrength)) / 5)
	},
	BaseParade: func(a func(string) int) int {
		return round(float64(a(AttrIntuition)+a(AttrAgility)+a(AttrStrength)) / 5)
	},
	BaseRangedAttack: func(a func(string) int) int {
		return round(float64(a(AttrIntuition)+a(AttrDexterity)+a(AttrStrength)) / 5)
	},
}

func round(v float64) int { return int(math.Round(v)) }

// IsDerivedBaseValue reports whether name has a formula. Manual base
// values (armor level, luck points, ...) return false.
func IsDerivedBaseValue(name string) bool {
	_, ok := baseValueFormulas[name]
	return ok
}

// DeriveBaseValues evaluates every formula over the given attributes and
// returns the raw formula results by base value name. Base values without
// a formula are absent from the result and must be left untouched by the
// caller. Evaluation never fails; unknown attributes evaluate as 0.
func DeriveBaseValues(attrs map[string]model.Attribute) map[string]int {
	lookup := func(name string) int {
		return attrs[name].Value()
	}
	out := make(map[string]int, len(baseValueFormulas))
	for name, f := range baseValueFormulas {
		out[name] = f(lookup)
	}
	return out
}
