// Package progression implements the mutation orchestrators: one
// operation per mutable fact of a character sheet. Every operation loads
// the sheet, applies the rules or allocator logic, persists the updated
// document guarded by an optimistic level compare, and appends one record
// to the history ledger. Requests are stateless and safe to retry:
// replays of an already-applied mutation return the applied state with a
// nil record.
package progression

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/history"
	"github.com/morwengames/chronicle/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service orchestrates all character sheet mutations.
type Service struct {
	db     *gorm.DB
	hist   *history.Service
	logger *zap.Logger
}

// New creates a progression Service. The store handle and ledger are
// injected; nothing here is process-global.
func New(db *gorm.DB, hist *history.Service, logger *zap.Logger) *Service {
	return &Service{db: db, hist: hist, logger: logger}
}

// History exposes the ledger for read-side handlers.
func (s *Service) History() *history.Service { return s.hist }

// load fetches a character owned by accountID. A character that exists
// but belongs to someone else reads as absent.
func (s *Service) load(accountID int64, characterID string) (*model.Character, *model.CharacterSheet, error) {
	var char model.Character
	err := s.db.Where("id = ? AND account_id = ?", characterID, accountID).First(&char).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errs.NotFound("character %s not found", characterID)
	}
	if err != nil {
		return nil, nil, errs.Internal(err, "loading character %s", characterID)
	}
	doc, err := char.Document()
	if err != nil {
		return nil, nil, errs.Internal(err, "decoding character %s", characterID)
	}
	return &char, doc, nil
}

// persist writes the updated document back, compare-and-swapped on the
// lifted level column. expectedLevel is the level the document had when
// it was loaded; a concurrent level change makes the swap miss and the
// whole request fails with a conflict instead of overwriting.
func (s *Service) persist(char *model.Character, doc *model.CharacterSheet, expectedLevel int) error {
	if err := char.SetDocument(doc); err != nil {
		return errs.Internal(err, "encoding character %s", char.ID)
	}
	res := s.db.Model(&model.Character{}).
		Where("id = ? AND level = ?", char.ID, expectedLevel).
		Updates(map[string]interface{}{
			"name":  char.Name,
			"level": char.Level,
			"sheet": char.Sheet,
		})
	if res.Error != nil {
		return errs.Internal(res.Error, "saving character %s", char.ID)
	}
	if res.RowsAffected == 0 {
		return errs.Conflict("character %s was modified concurrently", char.ID)
	}
	return nil
}

// appendRecord writes rec to the ledger. The sheet write has already
// succeeded at this point, so an append failure is retried — the append
// is idempotent by record id — and only surfaced as internal if it keeps
// failing; the fact change itself stands either way.
func (s *Service) appendRecord(characterID string, rec model.Record) (*model.Record, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		stored, _, err := s.hist.Append(characterID, rec)
		if err == nil {
			return stored, nil
		}
		lastErr = err
		s.logger.Warn("history append failed, retrying",
			zap.String("character_id", characterID),
			zap.String("record_id", rec.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil, errs.Internal(lastErr, "recording history for character %s", characterID)
}

// newRecord builds a record with a fresh id and timestamp. The ledger
// assigns the sequence number on append.
func newRecord(recType model.RecordType, name string, old, new interface{}) (model.Record, error) {
	oldRaw, err := json.Marshal(old)
	if err != nil {
		return model.Record{}, errs.Internal(err, "encoding record old value")
	}
	newRaw, err := json.Marshal(new)
	if err != nil {
		return model.Record{}, errs.Internal(err, "encoding record new value")
	}
	return model.Record{
		Type:      recType,
		Name:      name,
		ID:        uuid.New().String(),
		Data:      model.RecordData{Old: oldRaw, New: newRaw},
		Timestamp: time.Now().UTC(),
	}, nil
}

func pointsPair(old, new model.Points) *model.PointsPair {
	return &model.PointsPair{Old: old, New: new}
}

func strPtr(s string) *string { return &s }
