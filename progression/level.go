package progression

import (
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/levelup"
	"github.com/morwengames/chronicle/model"
)

// LevelState is the data payload of a plain level change record.
type LevelState struct {
	Level int `json:"level"`
}

// LevelResult is the response of a level increase.
type LevelResult struct {
	OldLevel int `json:"oldLevel"`
	NewLevel int `json:"newLevel"`
}

// IncreaseLevel advances the character by exactly one level, guarded by
// the caller's expected current level. Replaying an already-applied
// increase (stored level == initialLevel+1) returns the same result
// without re-mutating or logging.
func (s *Service) IncreaseLevel(accountID int64, characterID string, initialLevel int) (*LevelResult, *model.Record, error) {
	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case char.Level == initialLevel+1:
		return &LevelResult{OldLevel: initialLevel, NewLevel: char.Level}, nil, nil
	case char.Level != initialLevel:
		return nil, nil, errs.Conflict("level is %d, expected %d", char.Level, initialLevel)
	}

	doc.GeneralInformation.Level = initialLevel + 1
	if err := s.persist(char, doc, initialLevel); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordLevelChanged, "level",
		LevelState{Level: initialLevel}, LevelState{Level: initialLevel + 1})
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return &LevelResult{OldLevel: initialLevel, NewLevel: initialLevel + 1}, stored, nil
}

// LevelUpState is the data payload of a level-up commit record. It holds
// everything needed to replay or revert the selection: the level, the
// chosen effect's progress entry, and the state of whatever the effect
// touched.
type LevelUpState struct {
	Level            int                   `json:"level"`
	Effect           string                `json:"effect"`
	Progress         *model.EffectProgress `json:"progress,omitempty"`
	BaseValueName    string                `json:"baseValueName,omitempty"`
	BaseValue        *model.BaseValue      `json:"baseValue,omitempty"`
	SpecialAbilities []string              `json:"specialAbilities,omitempty"`
}

// LevelUpResult is the response of a level-up commit.
type LevelUpResult struct {
	OldLevel int          `json:"oldLevel"`
	NewLevel int          `json:"newLevel"`
	Effect   string       `json:"effect"`
	Old      LevelUpState `json:"old"`
	New      LevelUpState `json:"new"`
}

// LevelUpOffer enumerates the effect options for the character's next
// level together with the optimistic options hash.
func (s *Service) LevelUpOffer(accountID int64, characterID string) (*levelup.Offer, error) {
	_, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, err
	}
	return levelup.MakeOffer(characterID, doc), nil
}

// LevelUpCommit advances the level by one and applies the selected
// effect. The commit is rejected with a conflict when the options hash
// no longer matches the stored state or the level token is stale, and
// with a validation error for unknown effects and out-of-range rolls.
func (s *Service) LevelUpCommit(accountID int64, characterID string, initialLevel int, selectedEffect string, roll *int, optionsHash string) (*LevelUpResult, *model.Record, error) {
	kind, ok := levelup.ParseEffectKind(selectedEffect)
	if !ok {
		return nil, nil, errs.Validation("unknown level-up effect %q", selectedEffect)
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}

	// Replay of an already-applied commit: the level already advanced
	// and this effect was the one taken at that level.
	if char.Level == initialLevel+1 {
		if p, chosen := doc.LevelUpProgress[string(kind)]; chosen && p.LastChosenLevel == char.Level {
			result := s.levelUpResult(doc, kind, initialLevel, char.Level)
			return result, nil, nil
		}
		return nil, nil, errs.Conflict("level is %d, expected %d", char.Level, initialLevel)
	}
	if char.Level != initialLevel {
		return nil, nil, errs.Conflict("level is %d, expected %d", char.Level, initialLevel)
	}

	oldState := LevelUpState{Level: char.Level, Effect: string(kind)}
	if p, chosen := doc.LevelUpProgress[string(kind)]; chosen {
		cp := p
		oldState.Progress = &cp
	}

	applied, err := levelup.Commit(characterID, doc, kind, roll, optionsHash)
	if err != nil {
		return nil, nil, err
	}

	newState := LevelUpState{Level: applied.NewLevel, Effect: string(kind)}
	np := applied.NewProgress
	newState.Progress = &np

	if applied.TargetBaseValue != "" {
		bv := doc.BaseValues[applied.TargetBaseValue]
		oldBV := bv
		bv.Mod += applied.Delta
		bv.Current += applied.Delta
		doc.BaseValues[applied.TargetBaseValue] = bv

		oldState.BaseValueName = applied.TargetBaseValue
		oldState.BaseValue = &oldBV
		newState.BaseValueName = applied.TargetBaseValue
		newBV := bv
		newState.BaseValue = &newBV
	}
	if applied.UnlocksAbility != "" {
		oldState.SpecialAbilities = append([]string{}, doc.SpecialAbilities...)
		doc.SpecialAbilities = append(doc.SpecialAbilities, applied.UnlocksAbility)
		newState.SpecialAbilities = append([]string{}, doc.SpecialAbilities...)
	}

	if err := s.persist(char, doc, initialLevel); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordLevelChanged, string(kind), oldState, newState)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}

	return &LevelUpResult{
		OldLevel: applied.OldLevel,
		NewLevel: applied.NewLevel,
		Effect:   string(kind),
		Old:      oldState,
		New:      newState,
	}, stored, nil
}

// levelUpResult reconstructs the response for an idempotent replay from
// the already-applied document state.
func (s *Service) levelUpResult(doc *model.CharacterSheet, kind levelup.EffectKind, oldLevel, newLevel int) *LevelUpResult {
	newState := LevelUpState{Level: newLevel, Effect: string(kind)}
	if p, ok := doc.LevelUpProgress[string(kind)]; ok {
		cp := p
		newState.Progress = &cp
	}
	if target := levelup.TargetBaseValue(kind); target != "" {
		bv := doc.BaseValues[target]
		newState.BaseValueName = target
		newState.BaseValue = &bv
	} else {
		newState.SpecialAbilities = append([]string{}, doc.SpecialAbilities...)
	}
	return &LevelUpResult{
		OldLevel: oldLevel,
		NewLevel: newLevel,
		Effect:   string(kind),
		Old:      LevelUpState{Level: oldLevel, Effect: string(kind)},
		New:      newState,
	}
}
