package progression

import (
	"encoding/json"
	"strings"

	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
)

// RevertResult is the response of a revert: the record that was undone
// and the new forward record documenting the reversal.
type RevertResult struct {
	Reverted model.Record `json:"reverted"`
}

// RevertLatest undoes the character's most recent history record by
// applying its logical inverse as a new mutation. The chain is never
// truncated: the reversal is appended as a forward record with the
// old/new data swapped and the point deltas sign-flipped. The creation
// record cannot be reverted.
func (s *Service) RevertLatest(accountID int64, characterID string) (*RevertResult, *model.Record, error) {
	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}
	latest, _, err := s.hist.LatestRecord(characterID)
	if err != nil {
		return nil, nil, err
	}
	if latest.Type == model.RecordCharacterCreated {
		return nil, nil, errs.Validation("character creation cannot be reverted")
	}

	expectedLevel := doc.GeneralInformation.Level
	if err := s.applyInverse(doc, latest); err != nil {
		return nil, nil, err
	}

	if err := s.persist(char, doc, expectedLevel); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(latest.Type, latest.Name, json.RawMessage(latest.Data.New), json.RawMessage(latest.Data.Old))
	if err != nil {
		return nil, nil, err
	}
	rec.LearningMethod = latest.LearningMethod
	if p := latest.CalculationPoints.AdventurePoints; p != nil {
		rec.CalculationPoints.AdventurePoints = pointsPair(p.New, p.Old)
	}
	if p := latest.CalculationPoints.AttributePoints; p != nil {
		rec.CalculationPoints.AttributePoints = pointsPair(p.New, p.Old)
	}

	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return &RevertResult{Reverted: *latest}, stored, nil
}

// applyInverse restores the document state captured in rec's old side.
func (s *Service) applyInverse(doc *model.CharacterSheet, rec *model.Record) error {
	switch rec.Type {
	case model.RecordLevelChanged:
		var oldVal, newVal LevelUpState
		if err := decodePair(rec, &oldVal, &newVal); err != nil {
			return err
		}
		doc.GeneralInformation.Level = oldVal.Level
		if rec.Name != "level" {
			// Level-up commit: roll back the effect selection too.
			if oldVal.Progress != nil {
				doc.LevelUpProgress[rec.Name] = *oldVal.Progress
			} else {
				delete(doc.LevelUpProgress, rec.Name)
			}
			if oldVal.BaseValueName != "" && oldVal.BaseValue != nil {
				doc.BaseValues[oldVal.BaseValueName] = *oldVal.BaseValue
			}
			if newVal.SpecialAbilities != nil {
				doc.SpecialAbilities = append([]string{}, oldVal.SpecialAbilities...)
			}
		}

	case model.RecordAttributeChanged:
		var oldVal, newVal AttributeState
		if err := decodePair(rec, &oldVal, &newVal); err != nil {
			return err
		}
		doc.Attributes[rec.Name] = oldVal.Attribute
		for n, bv := range oldVal.BaseValues {
			doc.BaseValues[n] = bv
		}

	case model.RecordBaseValueChanged:
		var oldVal, newVal model.BaseValue
		if err := decodePair(rec, &oldVal, &newVal); err != nil {
			return err
		}
		doc.BaseValues[rec.Name] = oldVal

	case model.RecordSkillActivated, model.RecordSkillChanged:
		category, name, err := splitQualifiedName(rec.Name)
		if err != nil {
			return err
		}
		var oldVal, newVal model.Skill
		if err := decodePair(rec, &oldVal, &newVal); err != nil {
			return err
		}
		if _, ok := doc.Skills[category]; !ok {
			return errs.Internal(nil, "skill category %s missing for revert", category)
		}
		doc.Skills[category][name] = oldVal

	case model.RecordCombatValuesChanged:
		group, name, err := splitQualifiedName(rec.Name)
		if err != nil {
			return err
		}
		var oldVal, newVal model.CombatValue
		if err := decodePair(rec, &oldVal, &newVal); err != nil {
			return err
		}
		if _, ok := doc.CombatValues[group]; !ok {
			return errs.Internal(nil, "combat group %s missing for revert", group)
		}
		doc.CombatValues[group][name] = oldVal

	case model.RecordCalculationPointsChanged:
		var oldVal, newVal model.CalculationPoints
		if err := decodePair(rec, &oldVal, &newVal); err != nil {
			return err
		}
		doc.CalculationPoints = oldVal

	case model.RecordSpecialAbilitiesChanged:
		var oldVal, newVal []string
		if err := decodePair(rec, &oldVal, &newVal); err != nil {
			return err
		}
		doc.SpecialAbilities = append([]string{}, oldVal...)

	default:
		return errs.Validation("record type %s cannot be reverted", rec.Type)
	}

	// Point pools paid alongside the mutation move back with it.
	if p := rec.CalculationPoints.AdventurePoints; p != nil {
		doc.CalculationPoints.AdventurePoints = p.Old
	}
	if p := rec.CalculationPoints.AttributePoints; p != nil {
		doc.CalculationPoints.AttributePoints = p.Old
	}
	return nil
}

func decodePair(rec *model.Record, old, new interface{}) error {
	if len(rec.Data.Old) > 0 {
		if err := json.Unmarshal(rec.Data.Old, old); err != nil {
			return errs.Internal(err, "decoding record %s old value", rec.ID)
		}
	}
	if len(rec.Data.New) > 0 {
		if err := json.Unmarshal(rec.Data.New, new); err != nil {
			return errs.Internal(err, "decoding record %s new value", rec.ID)
		}
	}
	return nil
}

func splitQualifiedName(qualified string) (string, string, error) {
	parts := strings.SplitN(qualified, "/", 2)
	if len(parts) != 2 {
		return "", "", errs.Internal(nil, "malformed record name %q", qualified)
	}
	return parts[0], parts[1], nil
}
