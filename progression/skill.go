package progression

import (
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
	"github.com/morwengames/chronicle/rules"
)

// SkillResult is the response of a skill mutation.
type SkillResult struct {
	Category        string       `json:"category"`
	Name            string       `json:"name"`
	Skill           model.Skill  `json:"skill"`
	AdventurePoints model.Points `json:"adventurePoints"`
}

func (s *Service) lookupSkill(doc *model.CharacterSheet, category, name string) (model.Skill, error) {
	group, ok := doc.Skills[category]
	if !ok {
		return model.Skill{}, errs.NotFound("skill category %s not found", category)
	}
	skill, ok := group[name]
	if !ok {
		return model.Skill{}, errs.NotFound("skill %s/%s not found", category, name)
	}
	return skill, nil
}

// ActivateSkill flips an inactive skill to activated, paying the
// activation cost for the learning-method-adjusted category from
// adventure points. Activating an already-active skill is an idempotent
// no-op.
func (s *Service) ActivateSkill(accountID int64, characterID, category, name, learningMethod string) (*SkillResult, *model.Record, error) {
	method, ok := rules.ParseLearningMethod(learningMethod)
	if !ok {
		return nil, nil, errs.Validation("unknown learning method %q", learningMethod)
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}
	skill, err := s.lookupSkill(doc, category, name)
	if err != nil {
		return nil, nil, err
	}
	if skill.Activated {
		return s.skillResult(doc, category, name), nil, nil
	}

	effective := rules.AdjustCostCategory(rules.CostCategory(skill.CostCategory), method)
	cost := rules.ActivationCost(effective)
	points := doc.CalculationPoints.AdventurePoints
	if points.Available < cost {
		return nil, nil, errs.Conflict("insufficient adventure points: need %d, have %d", cost, points.Available)
	}

	oldSkill := skill
	oldPoints := points

	skill.Activated = true
	skill.LearningMethod = string(method)
	skill.TotalCost += cost
	doc.Skills[category][name] = skill

	points.Available -= cost
	doc.CalculationPoints.AdventurePoints = points

	if err := s.persist(char, doc, doc.GeneralInformation.Level); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordSkillActivated, category+"/"+name, oldSkill, skill)
	if err != nil {
		return nil, nil, err
	}
	rec.LearningMethod = strPtr(string(method))
	rec.CalculationPoints.AdventurePoints = pointsPair(oldPoints, points)

	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return s.skillResult(doc, category, name), stored, nil
}

// IncreaseSkill raises an activated skill by increase steps. The cost
// per step comes from the matrix under the learning-method-adjusted
// category and is paid from adventure points. initialCurrent is the
// optimistic token with the same replay semantics as attributes.
func (s *Service) IncreaseSkill(accountID int64, characterID, category, name string, initialCurrent, increase int, learningMethod string, mod *int) (*SkillResult, *model.Record, error) {
	if increase < 0 {
		return nil, nil, errs.Validation("increase must not be negative")
	}
	if increase == 0 && mod == nil {
		return nil, nil, errs.Validation("nothing to change")
	}
	method, ok := rules.ParseLearningMethod(learningMethod)
	if !ok {
		return nil, nil, errs.Validation("unknown learning method %q", learningMethod)
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}
	skill, err := s.lookupSkill(doc, category, name)
	if err != nil {
		return nil, nil, err
	}
	if !skill.Activated {
		return nil, nil, errs.Validation("skill %s/%s is not activated", category, name)
	}

	switch {
	case increase > 0 && skill.Current == initialCurrent+increase:
		return s.skillResult(doc, category, name), nil, nil
	case skill.Current != initialCurrent:
		return nil, nil, errs.Conflict("skill %s/%s is %d, expected %d", category, name, skill.Current, initialCurrent)
	}

	effective := rules.AdjustCostCategory(rules.CostCategory(skill.CostCategory), method)
	cost := rules.IncreaseCostTotal(skill.Current, increase, effective)
	points := doc.CalculationPoints.AdventurePoints
	if points.Available < cost {
		return nil, nil, errs.Conflict("insufficient adventure points: need %d, have %d", cost, points.Available)
	}

	oldSkill := skill
	oldPoints := points

	skill.Current += increase
	if mod != nil {
		skill.Mod = *mod
	}
	skill.TotalCost += cost
	skill.LearningMethod = string(method)
	doc.Skills[category][name] = skill

	points.Available -= cost
	doc.CalculationPoints.AdventurePoints = points

	if err := s.persist(char, doc, doc.GeneralInformation.Level); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordSkillChanged, category+"/"+name, oldSkill, skill)
	if err != nil {
		return nil, nil, err
	}
	rec.LearningMethod = strPtr(string(method))
	rec.CalculationPoints.AdventurePoints = pointsPair(oldPoints, points)

	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return s.skillResult(doc, category, name), stored, nil
}

func (s *Service) skillResult(doc *model.CharacterSheet, category, name string) *SkillResult {
	return &SkillResult{
		Category:        category,
		Name:            name,
		Skill:           doc.Skills[category][name],
		AdventurePoints: doc.CalculationPoints.AdventurePoints,
	}
}
