// Package levelup enumerates and allocates level-up effects. For each
// level gained a character picks exactly one effect; eligibility depends
// on a per-effect first level, a cooldown measured in levels, and a
// selection cap. The allocator is pure over the sheet document.
package levelup

import (
	"fmt"

	"github.com/morwengames/chronicle/rules"
)

// EffectKind is one of the fixed set of level-up bonuses.
type EffectKind string

const (
	EffectHPRoll                 EffectKind = "hpRoll"
	EffectArmorLevelRoll         EffectKind = "armorLevelRoll"
	EffectInitiativePlusOne      EffectKind = "initiativePlusOne"
	EffectLuckPlusOne            EffectKind = "luckPlusOne"
	EffectBonusActionPlusOne     EffectKind = "bonusActionPlusOne"
	EffectLegendaryActionPlusOne EffectKind = "legendaryActionPlusOne"
	EffectRerollUnlock           EffectKind = "rerollUnlock"
)

// RerollAbility is the special ability granted by rerollUnlock.
const RerollAbility = "Reroll"

type effectDef struct {
	kind EffectKind

	// firstLevel is the lowest level at which the effect may be chosen.
	firstLevel int
	// cooldown is the number of levels that must pass after a selection
	// before the effect may be chosen again. 0 means every level.
	cooldown int
	// maxSelections caps lifetime selections; 0 means unlimited.
	maxSelections int

	// dice is set for roll effects; min/max bound the accepted roll.
	dice    string
	rollMin int
	rollMax int

	// baseValue names the base value the effect raises; empty for
	// rerollUnlock, which grants a special ability instead.
	baseValue string
}

var effectDefs = map[EffectKind]effectDef{
	EffectHPRoll: {
		kind: EffectHPRoll, firstLevel: 2,
		dice: "1d6", rollMin: 1, rollMax: 6,
		baseValue: rules.BaseHealthPoints,
	},
	EffectArmorLevelRoll: {
		kind: EffectArmorLevelRoll, firstLevel: 5, cooldown: 4, maxSelections: 3,
		dice: "1d4", rollMin: 1, rollMax: 4,
		baseValue: rules.BaseArmorLevel,
	},
	EffectInitiativePlusOne: {
		kind: EffectInitiativePlusOne, firstLevel: 3, cooldown: 3, maxSelections: 5,
		baseValue: rules.BaseInitiative,
	},
	EffectLuckPlusOne: {
		kind: EffectLuckPlusOne, firstLevel: 2, cooldown: 2, maxSelections: 10,
		baseValue: rules.BaseLuckPoints,
	},
	EffectBonusActionPlusOne: {
		kind: EffectBonusActionPlusOne, firstLevel: 10, cooldown: 9, maxSelections: 2,
		baseValue: rules.BaseBonusActions,
	},
	EffectLegendaryActionPlusOne: {
		kind: EffectLegendaryActionPlusOne, firstLevel: 15, cooldown: 14, maxSelections: 2,
		baseValue: rules.BaseLegendaryActions,
	},
	EffectRerollUnlock: {
		kind: EffectRerollUnlock, firstLevel: 7, maxSelections: 1,
	},
}

// effectOrder fixes the presentation order of offers.
var effectOrder = []EffectKind{
	EffectHPRoll,
	EffectArmorLevelRoll,
	EffectInitiativePlusOne,
	EffectLuckPlusOne,
	EffectBonusActionPlusOne,
	EffectLegendaryActionPlusOne,
	EffectRerollUnlock,
}

// ParseEffectKind looks up an effect kind by its string key. The bool is
// false for unknown keys.
func ParseEffectKind(s string) (EffectKind, bool) {
	if _, ok := effectDefs[EffectKind(s)]; ok {
		return EffectKind(s), true
	}
	return "", false
}

// RequiresRoll reports whether the effect takes a dice roll payload.
func RequiresRoll(kind EffectKind) bool {
	return effectDefs[kind].dice != ""
}

// RollRange returns the dice expression and inclusive roll bounds of a
// roll effect.
func RollRange(kind EffectKind) (dice string, min, max int) {
	d := effectDefs[kind]
	return d.dice, d.rollMin, d.rollMax
}

// TargetBaseValue returns the base value an effect raises, or "" when the
// effect grants an ability instead.
func TargetBaseValue(kind EffectKind) string {
	return effectDefs[kind].baseValue
}

func (d effectDef) describeDenial(nextLevel int, count int, last int, chosen bool) string {
	if nextLevel < d.firstLevel {
		return fmt.Sprintf("available from level %d", d.firstLevel)
	}
	if d.maxSelections > 0 && count >= d.maxSelections {
		return fmt.Sprintf("already selected %d of %d times", count, d.maxSelections)
	}
	if chosen && d.cooldown > 0 && nextLevel <= last+d.cooldown {
		return fmt.Sprintf("on cooldown until level %d", last+d.cooldown+1)
	}
	return ""
}
