package progression

import (
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
)

// PointsResult carries both pools after a calculation points change.
type PointsResult struct {
	CalculationPoints model.CalculationPoints `json:"calculationPoints"`
}

// PointsDelta is a signed change to one pool, guarded by the available
// value the caller last saw.
type PointsDelta struct {
	InitialAvailable int
	Delta            int
}

// UpdateCalculationPoints applies deltas to the adventure and/or
// attribute point pools. A positive delta is a grant and raises both
// Available and Total; a negative delta is a spend and only lowers
// Available. A spend that would push Available below zero conflicts.
func (s *Service) UpdateCalculationPoints(accountID int64, characterID string, adventure, attribute *PointsDelta) (*PointsResult, *model.Record, error) {
	if adventure == nil && attribute == nil {
		return nil, nil, errs.Validation("nothing to change")
	}
	if (adventure != nil && adventure.Delta == 0) || (attribute != nil && attribute.Delta == 0) {
		return nil, nil, errs.Validation("delta must not be zero")
	}

	char, doc, err := s.load(accountID, characterID)
	if err != nil {
		return nil, nil, err
	}
	old := doc.CalculationPoints

	applied := 0
	apply := func(pool *model.Points, d *PointsDelta) error {
		if d == nil {
			return nil
		}
		if pool.Available == d.InitialAvailable+d.Delta {
			// Already at the requested outcome: replay, skip.
			return nil
		}
		if pool.Available != d.InitialAvailable {
			return errs.Conflict("available points are %d, expected %d", pool.Available, d.InitialAvailable)
		}
		if pool.Available+d.Delta < 0 {
			return errs.Conflict("insufficient points: %d available, %d requested", pool.Available, -d.Delta)
		}
		pool.Available += d.Delta
		if d.Delta > 0 {
			pool.Total += d.Delta
		}
		applied++
		return nil
	}
	if err := apply(&doc.CalculationPoints.AdventurePoints, adventure); err != nil {
		return nil, nil, err
	}
	if err := apply(&doc.CalculationPoints.AttributePoints, attribute); err != nil {
		return nil, nil, err
	}
	if applied == 0 {
		// Every requested delta was already applied: replay.
		return &PointsResult{CalculationPoints: doc.CalculationPoints}, nil, nil
	}

	if err := s.persist(char, doc, doc.GeneralInformation.Level); err != nil {
		return nil, nil, err
	}

	rec, err := newRecord(model.RecordCalculationPointsChanged, "calculationPoints", old, doc.CalculationPoints)
	if err != nil {
		return nil, nil, err
	}
	if adventure != nil {
		rec.CalculationPoints.AdventurePoints = pointsPair(old.AdventurePoints, doc.CalculationPoints.AdventurePoints)
	}
	if attribute != nil {
		rec.CalculationPoints.AttributePoints = pointsPair(old.AttributePoints, doc.CalculationPoints.AttributePoints)
	}
	stored, err := s.appendRecord(characterID, rec)
	if err != nil {
		return nil, nil, err
	}
	return &PointsResult{CalculationPoints: doc.CalculationPoints}, stored, nil
}
