package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// HistoryBlock is one capacity-bounded container of change records. Blocks
// for a character form a singly-linked chain: block 1 has a nil
// PreviousBlockID, block N points at block N-1's BlockID.
type HistoryBlock struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"-"`
	CharacterID     string         `gorm:"uniqueIndex:idx_hist_char_block;size:36;not null" json:"characterId"`
	BlockNumber     int            `gorm:"uniqueIndex:idx_hist_char_block;not null" json:"blockNumber"`
	BlockID         string         `gorm:"size:36;not null" json:"blockId"`
	PreviousBlockID *string        `gorm:"size:36" json:"previousBlockId"`
	Changes         datatypes.JSON `json:"changes"`
	Version         int            `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"-"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"-"`
}

// Records deserializes the Changes column.
func (b *HistoryBlock) Records() ([]Record, error) {
	if len(b.Changes) == 0 {
		return nil, nil
	}
	var recs []Record
	if err := json.Unmarshal(b.Changes, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// SetRecords serializes recs into the Changes column.
func (b *HistoryBlock) SetRecords(recs []Record) error {
	raw, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	b.Changes = datatypes.JSON(raw)
	return nil
}

// RecordType identifies what kind of mutation a history record documents.
type RecordType string

const (
	RecordCharacterCreated         RecordType = "CHARACTER_CREATED"
	RecordLevelChanged             RecordType = "LEVEL_CHANGED"
	RecordAttributeChanged         RecordType = "ATTRIBUTE_CHANGED"
	RecordBaseValueChanged         RecordType = "BASE_VALUE_CHANGED"
	RecordSkillActivated           RecordType = "SKILL_ACTIVATED"
	RecordSkillChanged             RecordType = "SKILL_CHANGED"
	RecordCombatValuesChanged      RecordType = "COMBAT_VALUES_CHANGED"
	RecordCalculationPointsChanged RecordType = "CALCULATION_POINTS_CHANGED"
	RecordSpecialAbilitiesChanged  RecordType = "SPECIAL_ABILITIES_CHANGED"
)

var recordTypes = map[string]RecordType{
	string(RecordCharacterCreated):         RecordCharacterCreated,
	string(RecordLevelChanged):             RecordLevelChanged,
	string(RecordAttributeChanged):         RecordAttributeChanged,
	string(RecordBaseValueChanged):         RecordBaseValueChanged,
	string(RecordSkillActivated):           RecordSkillActivated,
	string(RecordSkillChanged):             RecordSkillChanged,
	string(RecordCombatValuesChanged):      RecordCombatValuesChanged,
	string(RecordCalculationPointsChanged): RecordCalculationPointsChanged,
	string(RecordSpecialAbilitiesChanged):  RecordSpecialAbilitiesChanged,
}

// ParseRecordType looks up a record type by its string key. The bool is
// false for unknown keys; callers treat that as a validation failure.
func ParseRecordType(s string) (RecordType, bool) {
	t, ok := recordTypes[s]
	return t, ok
}

// RecordData holds the old/new delta of one mutation. The payload shape
// depends on the record type, so both sides stay raw JSON.
type RecordData struct {
	Old json.RawMessage `json:"old"`
	New json.RawMessage `json:"new"`
}

// PointsPair documents how one calculation point pool moved.
type PointsPair struct {
	Old Points `json:"old"`
	New Points `json:"new"`
}

// RecordCalcPoints carries the calculation point deltas of a record. Nil
// fields mean the pool was untouched.
type RecordCalcPoints struct {
	AdventurePoints *PointsPair `json:"adventurePoints"`
	AttributePoints *PointsPair `json:"attributePoints"`
}

// Record is one logged mutation event. ID is unique per character across
// all blocks; Number increases monotonically across the whole history.
// Only Comment may change after the record is written.
type Record struct {
	Type              RecordType       `json:"type"`
	Name              string           `json:"name"`
	Number            int              `json:"number"`
	ID                string           `json:"id"`
	Data              RecordData       `json:"data"`
	LearningMethod    *string          `json:"learningMethod"`
	CalculationPoints RecordCalcPoints `json:"calculationPoints"`
	Comment           *string          `json:"comment"`
	Timestamp         time.Time        `json:"timestamp"`
}
