package progression

import (
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
)

// AbilitiesResult is the full ability list after a change.
type AbilitiesResult struct {
	SpecialAbilities []string `json:"specialAbilities"`
}

// UpdateSpecialAbilities adds and removes named abilities. Adding an
// ability the character already has, or removing one it never had, is
// treated as an already-applied part of the request; if nothing is left
// to do the whole call is a replay and no record is written.
func (s *Service) UpdateSpecialAbilities(accountID int64, characterID string, add, remove []string) (*AbilitiesResult, *model.Record, error) {
	if len(add) == 0 && len(remove) == 0 {
		return nil, nil, errs.Validation("nothing to change")
	}
	for _, name := range append(append([]string{}, add...), remove...) {
		if name == "" {
			return nil, nil, errs.Validation("ability name must not be empty")
		}
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}

	have := make(map[string]bool, len(doc.SpecialAbilities))
	for _, name := range doc.SpecialAbilities {
		have[name] = true
	}

	old := append([]string{}, doc.SpecialAbilities...)
	changed := false
	for _, name := range add {
		if !have[name] {
			doc.SpecialAbilities = append(doc.SpecialAbilities, name)
			have[name] = true
			changed = true
		}
	}
	for _, name := range remove {
		if have[name] {
			delete(have, name)
			changed = true
		}
	}
	if len(remove) > 0 {
		kept := doc.SpecialAbilities[:0]
		for _, name := range doc.SpecialAbilities {
			if have[name] {
				kept = append(kept, name)
			}
		}
		doc.SpecialAbilities = kept
	}
	if !changed {
		return &AbilitiesResult{SpecialAbilities: old}, nil, nil
	}

	if err := s.persist(char, doc, doc.GeneralInformation.Level); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordSpecialAbilitiesChanged, "specialAbilities", old, doc.SpecialAbilities)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return &AbilitiesResult{SpecialAbilities: doc.SpecialAbilities}, stored, nil
}
