package progression

import (
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
	"github.com/morwengames/chronicle/rules"
)

// AttributeState is one side of an attribute change record. BaseValues
// holds the derived base values the change moved, keyed by name.
type AttributeState struct {
	Attribute  model.Attribute            `json:"attribute"`
	BaseValues map[string]model.BaseValue `json:"baseValues,omitempty"`
}

// AttributeResult is the response of an attribute mutation.
type AttributeResult struct {
	Name            string                     `json:"name"`
	Attribute       model.Attribute            `json:"attribute"`
	BaseValues      map[string]model.BaseValue `json:"baseValues,omitempty"`
	AttributePoints model.Points               `json:"attributePoints"`
}

// IncreaseAttribute raises an attribute by increase steps, paying the
// matrix cost from attribute points, and recomputes the derived base
// values. initialCurrent is the optimistic token: a stored value already
// at initialCurrent+increase is treated as a replayed request.
func (s *Service) IncreaseAttribute(accountID int64, characterID, name string, initialCurrent, increase int, mod *int) (*AttributeResult, *model.Record, error) {
	if increase < 0 {
		return nil, nil, errs.Validation("increase must not be negative")
	}
	if increase == 0 && mod == nil {
		return nil, nil, errs.Validation("nothing to change")
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}
	attr, ok := doc.Attributes[name]
	if !ok {
		return nil, nil, errs.NotFound("attribute %s not found", name)
	}

	switch {
	case increase > 0 && attr.Current == initialCurrent+increase:
		// Replayed request: already applied, return without re-mutating.
		return s.attributeResult(doc, name), nil, nil
	case attr.Current != initialCurrent:
		return nil, nil, errs.Conflict("attribute %s is %d, expected %d", name, attr.Current, initialCurrent)
	}

	cost := rules.IncreaseCostTotal(attr.Current, increase, rules.AttributeCostCategory)
	points := doc.CalculationPoints.AttributePoints
	if points.Available < cost {
		return nil, nil, errs.Conflict("insufficient attribute points: need %d, have %d", cost, points.Available)
	}

	oldState := AttributeState{Attribute: attr}
	oldPoints := points

	prevBase := make(map[string]model.BaseValue)
	for n, bv := range doc.BaseValues {
		if rules.IsDerivedBaseValue(n) {
			prevBase[n] = bv
		}
	}

	attr.Current += increase
	if mod != nil {
		attr.Mod = *mod
	}
	attr.TotalCost += cost
	doc.Attributes[name] = attr

	points.Available -= cost
	doc.CalculationPoints.AttributePoints = points

	newState := AttributeState{Attribute: attr}
	if changed := rules.ApplyDerivedBaseValues(doc); len(changed) > 0 {
		oldState.BaseValues = make(map[string]model.BaseValue, len(changed))
		newState.BaseValues = make(map[string]model.BaseValue, len(changed))
		for _, n := range changed {
			oldState.BaseValues[n] = prevBase[n]
			newState.BaseValues[n] = doc.BaseValues[n]
		}
	}

	if err := s.persist(char, doc, doc.GeneralInformation.Level); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordAttributeChanged, name, oldState, newState)
	if err != nil {
		return nil, nil, err
	}
	rec.CalculationPoints.AttributePoints = pointsPair(oldPoints, points)

	stored, err := s.appendRecord(char.ID, rec)
	if err != nil {
		return nil, nil, err
	}
	return s.attributeResult(doc, name), stored, nil
}

func (s *Service) attributeResult(doc *model.CharacterSheet, name string) *AttributeResult {
	derived := make(map[string]model.BaseValue)
	for n, bv := range doc.BaseValues {
		if rules.IsDerivedBaseValue(n) {
			derived[n] = bv
		}
	}
	return &AttributeResult{
		Name:            name,
		Attribute:       doc.Attributes[name],
		BaseValues:      derived,
		AttributePoints: doc.CalculationPoints.AttributePoints,
	}
}
