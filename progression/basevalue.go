package progression

import (
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
	"github.com/morwengames/chronicle/rules"
)

// BaseValueResult is the response of a base value mutation.
type BaseValueResult struct {
	Name  string          `json:"name"`
	Value model.BaseValue `json:"value"`
}

// UpdateBaseValue sets the current value and/or mod of a manually
// tracked base value. Formula-derived base values only move through
// attribute changes and level-up effects and reject with a validation
// error here. initialCurrent is the optimistic token.
func (s *Service) UpdateBaseValue(accountID int64, characterID, name string, initialCurrent int, current, mod *int) (*BaseValueResult, *model.Record, error) {
	if current == nil && mod == nil {
		return nil, nil, errs.Validation("nothing to change")
	}
	if rules.IsDerivedBaseValue(name) {
		return nil, nil, errs.Validation("base value %s is formula-derived and cannot be set directly", name)
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}
	bv, ok := doc.BaseValues[name]
	if !ok {
		return nil, nil, errs.NotFound("base value %s not found", name)
	}

	switch {
	case current != nil && bv.Current == *current && bv.Current != initialCurrent:
		// Stored state already equals the requested outcome: replay.
		return &BaseValueResult{Name: name, Value: bv}, nil, nil
	case bv.Current != initialCurrent:
		return nil, nil, errs.Conflict("base value %s is %d, expected %d", name, bv.Current, initialCurrent)
	}

	oldBV := bv
	if current != nil {
		bv.Current = *current
	}
	if mod != nil {
		bv.Mod = *mod
	}
	if bv == oldBV {
		return &BaseValueResult{Name: name, Value: bv}, nil, nil
	}
	doc.BaseValues[name] = bv

	if err := s.persist(char, doc, doc.GeneralInformation.Level); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordBaseValueChanged, name, oldBV, bv)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return &BaseValueResult{Name: name, Value: bv}, stored, nil
}
