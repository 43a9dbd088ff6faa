package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Character is the stored row for one character sheet. The full sheet
// document lives in the Sheet JSON column; AccountID, Name and Level are
// lifted into columns so ownership checks and optimistic level comparisons
// never need to deserialize the document.
type Character struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	AccountID int64          `gorm:"index:idx_char_account;not null" json:"account_id"`
	Name      string         `gorm:"size:64;not null" json:"name"`
	Level     int            `gorm:"default:1" json:"level"`
	Sheet     datatypes.JSON `json:"sheet"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// Document deserializes the Sheet column.
func (c *Character) Document() (*CharacterSheet, error) {
	var doc CharacterSheet
	if err := json.Unmarshal(c.Sheet, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SetDocument serializes doc into the Sheet column and keeps the lifted
// Name/Level columns in sync with it.
func (c *Character) SetDocument(doc *CharacterSheet) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c.Sheet = datatypes.JSON(raw)
	c.Name = doc.GeneralInformation.Name
	c.Level = doc.GeneralInformation.Level
	return nil
}
