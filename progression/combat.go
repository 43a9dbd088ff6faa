package progression

import (
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
)

// CombatResult is the response of a combat value mutation.
type CombatResult struct {
	Group string            `json:"group"`
	Name  string            `json:"name"`
	Value model.CombatValue `json:"value"`
}

// DistributeCombatPoints spends available combat points of one combat
// value on its attack and parade values. initialAvailablePoints is the
// optimistic token; a pool already reduced by exactly the requested
// spend is treated as a replayed request.
func (s *Service) DistributeCombatPoints(accountID int64, characterID, group, name string, initialAvailablePoints, attack, parade int) (*CombatResult, *model.Record, error) {
	if attack < 0 || parade < 0 {
		return nil, nil, errs.Validation("attack and parade must not be negative")
	}
	spend := attack + parade
	if spend == 0 {
		return nil, nil, errs.Validation("nothing to distribute")
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}
	groupMap, ok := doc.CombatValues[group]
	if !ok {
		return nil, nil, errs.NotFound("combat group %s not found", group)
	}
	cv, ok := groupMap[name]
	if !ok {
		return nil, nil, errs.NotFound("combat value %s/%s not found", group, name)
	}

	switch {
	case cv.AvailablePoints == initialAvailablePoints-spend:
		return &CombatResult{Group: group, Name: name, Value: cv}, nil, nil
	case cv.AvailablePoints != initialAvailablePoints:
		return nil, nil, errs.Conflict("combat value %s/%s has %d points, expected %d", group, name, cv.AvailablePoints, initialAvailablePoints)
	}
	if cv.AvailablePoints < spend {
		return nil, nil, errs.Conflict("insufficient combat points: need %d, have %d", spend, cv.AvailablePoints)
	}

	oldCV := cv
	cv.AvailablePoints -= spend
	cv.AttackValue += attack
	cv.ParadeValue += parade
	doc.CombatValues[group][name] = cv

	if err := s.persist(char, doc, doc.GeneralInformation.Level); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordCombatValuesChanged, group+"/"+name, oldCV, cv)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return &CombatResult{Group: group, Name: name, Value: cv}, stored, nil
}

// GrantCombatPoints raises the available pool of one combat value, e.g.
// as a quest reward.
func (s *Service) GrantCombatPoints(accountID int64, characterID, group, name string, points int) (*CombatResult, *model.Record, error) {
	if points <= 0 {
		return nil, nil, errs.Validation("points must be positive")
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}
	groupMap, ok := doc.CombatValues[group]
	if !ok {
		return nil, nil, errs.NotFound("combat group %s not found", group)
	}
	cv, ok := groupMap[name]
	if !ok {
		return nil, nil, errs.NotFound("combat value %s/%s not found", group, name)
	}

	oldCV := cv
	cv.AvailablePoints += points
	doc.CombatValues[group][name] = cv

	if err := s.persist(char, doc, doc.GeneralInformation.Level); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordCombatValuesChanged, group+"/"+name, oldCV, cv)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return &CombatResult{Group: group, Name: name, Value: cv}, stored, nil
}
