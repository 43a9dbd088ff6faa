package progression

import (
	"errors"

	"github.com/google/uuid"
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
	"github.com/morwengames/chronicle/rules"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreatedSummary is the data payload of the character-created record.
type CreatedSummary struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// CreateCharacter builds a fresh sheet with rule defaults, stores it and
// appends the synthesized character-created genesis record.
func (s *Service) CreateCharacter(accountID int64, name string, maxCharacters int) (*model.Character, *model.Record, error) {
	if maxCharacters > 0 {
		var existing []model.Character
		if err := s.db.Select("id").Where("account_id = ?", accountID).Find(&existing).Error; err != nil {
			return nil, nil, errs.Internal(err, "counting characters")
		}
		if len(existing) >= maxCharacters {
			return nil, nil, errs.Validation("max characters reached")
		}
	}

	doc := rules.NewCharacterSheet(name)
	char := &model.Character{ID: uuid.New().String(), AccountID: accountID}
	if err := char.SetDocument(doc); err != nil {
		return nil, nil, errs.Internal(err, "encoding new character")
	}
	if err := s.db.Create(char).Error; err != nil {
		return nil, nil, errs.Internal(err, "creating character")
	}

	rec, err := newRecord(model.RecordCharacterCreated, "character",
		nil, CreatedSummary{Name: name, Level: doc.GeneralInformation.Level})
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.appendRecord(char.ID, rec)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("character created",
		zap.String("character_id", char.ID),
		zap.Int64("account_id", accountID),
	)
	return char, stored, nil
}

// GetCharacter returns the character row with its document decoded.
func (s *Service) GetCharacter(accountID int64, characterID string) (*model.Character, *model.CharacterSheet, error) {
	return s.load(accountID, characterID)
}

// ListCharacters returns all characters of an account.
func (s *Service) ListCharacters(accountID int64) ([]model.Character, error) {
	var chars []model.Character
	if err := s.db.Where("account_id = ?", accountID).Find(&chars).Error; err != nil {
		return nil, errs.Internal(err, "listing characters")
	}
	return chars, nil
}

// DeleteCharacter removes the character and its entire history chain.
func (s *Service) DeleteCharacter(accountID int64, characterID string) error {
	res := s.db.Where("id = ? AND account_id = ?", characterID, accountID).Delete(&model.Character{})
	if res.Error != nil {
		return errs.Internal(res.Error, "deleting character %s", characterID)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("character %s not found", characterID)
	}
	return s.hist.DeleteAll(characterID)
}

// AccountPasswordHash loads the account for a destructive confirmation
// check. It returns the stored bcrypt hash.
func (s *Service) AccountPasswordHash(accountID int64) (string, error) {
	var acc model.Account
	err := s.db.First(&acc, accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errs.Auth("account not found")
	}
	if err != nil {
		return "", errs.Internal(err, "loading account")
	}
	return acc.PasswordHash, nil
}
