package levelup

import (
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
)

// Option is one entry of a level-up offer.
type Option struct {
	Effect  EffectKind `json:"effect"`
	Allowed bool       `json:"allowed"`
	Reason  string     `json:"reason,omitempty"`
	Dice    string     `json:"dice,omitempty"`
	RollMin int        `json:"rollMin,omitempty"`
	RollMax int        `json:"rollMax,omitempty"`
}

// Offer is the full set of options for the character's next level plus
// the optimistic-concurrency fingerprint of the state it was computed
// from.
type Offer struct {
	NextLevel   int      `json:"nextLevel"`
	Options     []Option `json:"options"`
	OptionsHash string   `json:"optionsHash"`
}

// Applied describes a committed effect selection for the orchestrator to
// persist and log.
type Applied struct {
	Effect      EffectKind
	OldLevel    int
	NewLevel    int
	OldProgress *model.EffectProgress // nil when the effect was never chosen before
	NewProgress model.EffectProgress

	// TargetBaseValue and Delta are set for base-value effects;
	// UnlocksAbility for rerollUnlock.
	TargetBaseValue string
	Delta           int
	UnlocksAbility  string
}

// MakeOffer enumerates all effect options for the character's next level.
func MakeOffer(characterID string, doc *model.CharacterSheet) *Offer {
	nextLevel := doc.GeneralInformation.Level + 1
	options := make([]Option, 0, len(effectOrder))
	for _, kind := range effectOrder {
		options = append(options, optionFor(kind, nextLevel, doc.LevelUpProgress))
	}
	return &Offer{
		NextLevel:   nextLevel,
		Options:     options,
		OptionsHash: OptionsHash(characterID, doc.GeneralInformation.Level, doc.LevelUpProgress),
	}
}

func optionFor(kind EffectKind, nextLevel int, progress map[string]model.EffectProgress) Option {
	def := effectDefs[kind]
	p, chosen := progress[string(kind)]

	opt := Option{Effect: kind}
	if def.dice != "" {
		opt.Dice = def.dice
		opt.RollMin = def.rollMin
		opt.RollMax = def.rollMax
	}

	if reason := def.describeDenial(nextLevel, p.SelectionCount, p.LastChosenLevel, chosen); reason != "" {
		opt.Reason = reason
		return opt
	}
	opt.Allowed = true
	return opt
}

// Commit validates the selection against the current document state and
// applies it: the level advances by one and the effect's progress entry is
// updated. The caller-supplied optionsHash must match a hash freshly
// computed from doc, otherwise the offer is stale and the commit is
// rejected with a conflict.
//
// The returned Applied tells the orchestrator what else to persist (base
// value delta or ability unlock); Commit itself only mutates level and
// progress.
func Commit(characterID string, doc *model.CharacterSheet, kind EffectKind, roll *int, optionsHash string) (*Applied, error) {
	def, ok := effectDefs[kind]
	if !ok {
		return nil, errs.Validation("unknown level-up effect %q", string(kind))
	}

	current := OptionsHash(characterID, doc.GeneralInformation.Level, doc.LevelUpProgress)
	if optionsHash != current {
		return nil, errs.Conflict("level-up options are stale, request a fresh offer")
	}

	nextLevel := doc.GeneralInformation.Level + 1
	opt := optionFor(kind, nextLevel, doc.LevelUpProgress)
	if !opt.Allowed {
		return nil, errs.Conflict("effect %s not allowed: %s", kind, opt.Reason)
	}

	applied := &Applied{
		Effect:   kind,
		OldLevel: doc.GeneralInformation.Level,
		NewLevel: nextLevel,
	}

	if def.dice != "" {
		if roll == nil {
			return nil, errs.Validation("effect %s requires a %s roll", kind, def.dice)
		}
		if *roll < def.rollMin || *roll > def.rollMax {
			return nil, errs.Validation("roll %d outside %s range [%d,%d]", *roll, def.dice, def.rollMin, def.rollMax)
		}
		applied.TargetBaseValue = def.baseValue
		applied.Delta = *roll
	} else if def.baseValue != "" {
		applied.TargetBaseValue = def.baseValue
		applied.Delta = 1
	} else {
		applied.UnlocksAbility = RerollAbility
	}

	if p, chosen := doc.LevelUpProgress[string(kind)]; chosen {
		cp := p
		applied.OldProgress = &cp
		p.SelectionCount++
		p.LastChosenLevel = nextLevel
		applied.NewProgress = p
	} else {
		applied.NewProgress = model.EffectProgress{
			SelectionCount:   1,
			FirstChosenLevel: nextLevel,
			LastChosenLevel:  nextLevel,
		}
	}

	if doc.LevelUpProgress == nil {
		doc.LevelUpProgress = make(map[string]model.EffectProgress)
	}
	doc.LevelUpProgress[string(kind)] = applied.NewProgress
	doc.GeneralInformation.Level = nextLevel
	return applied, nil
}
