// Package history maintains the per-character append-only change chain.
// Records live inside capacity-bounded blocks; each block points at its
// predecessor's block id, block 1 at nil. Blocks are only ever appended
// to — the single exception is the comment field of a record, which may
// be updated in place.
package history

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/morwengames/chronicle/errs"
	"github.com/morwengames/chronicle/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultBlockCapacity is the record count after which a new block is
// chained. A tuning constant, not a correctness invariant.
const DefaultBlockCapacity = 50

// appendAttempts bounds how often an append retries after losing the
// version race on the latest block.
const appendAttempts = 5

// Service is the gorm-backed history ledger for all characters.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	capacity int
}

// New creates a history Service. A non-positive capacity falls back to
// DefaultBlockCapacity.
func New(db *gorm.DB, logger *zap.Logger, capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultBlockCapacity
	}
	return &Service{db: db, logger: logger, capacity: capacity}
}

// Latest returns the most recent limit blocks ordered by descending block
// number. An empty result is not an error: a character without history
// simply has no blocks yet.
func (s *Service) Latest(characterID string, limit int) ([]model.HistoryBlock, error) {
	if limit <= 0 {
		limit = 1
	}
	var blocks []model.HistoryBlock
	err := s.db.Where("character_id = ?", characterID).
		Order("block_number DESC").
		Limit(limit).
		Find(&blocks).Error
	if err != nil {
		return nil, errs.Internal(err, "loading history blocks")
	}
	return blocks, nil
}

// Page returns up to limit blocks with a block number strictly below
// before, newest first. A non-positive before means no upper bound, so
// the page starts at the latest block.
func (s *Service) Page(characterID string, before, limit int) ([]model.HistoryBlock, error) {
	if limit <= 0 {
		limit = 1
	}
	q := s.db.Where("character_id = ?", characterID)
	if before > 0 {
		q = q.Where("block_number < ?", before)
	}
	var blocks []model.HistoryBlock
	err := q.Order("block_number DESC").
		Limit(limit).
		Find(&blocks).Error
	if err != nil {
		return nil, errs.Internal(err, "loading history blocks")
	}
	return blocks, nil
}

// ByBlockNumber is the point lookup of one block.
func (s *Service) ByBlockNumber(characterID string, blockNumber int) (*model.HistoryBlock, error) {
	var block model.HistoryBlock
	err := s.db.Where("character_id = ? AND block_number = ?", characterID, blockNumber).
		First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("history block %d not found", blockNumber)
	}
	if err != nil {
		return nil, errs.Internal(err, "loading history block %d", blockNumber)
	}
	return &block, nil
}

// newBlock creates the next block in the chain. prev is nil for the
// genesis block. The unique (character_id, block_number) index turns a
// concurrent double-create into a driver error the caller retries on.
func (s *Service) newBlock(characterID string, prev *model.HistoryBlock) (*model.HistoryBlock, error) {
	block := &model.HistoryBlock{
		CharacterID: characterID,
		BlockNumber: 1,
		BlockID:     uuid.New().String(),
	}
	if prev != nil {
		block.BlockNumber = prev.BlockNumber + 1
		prevID := prev.BlockID
		block.PreviousBlockID = &prevID
	}
	if err := block.SetRecords(nil); err != nil {
		return nil, errs.Internal(err, "encoding empty block")
	}
	if err := s.db.Create(block).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("history block %d already exists", block.BlockNumber)
		}
		return nil, errs.Internal(err, "creating history block %d", block.BlockNumber)
	}
	return block, nil
}

// Append adds rec to the character's most recent block, creating the
// genesis block or the next chained block as needed. It assigns the
// record's chain-wide sequence number. Appending a record id that is
// already present in the latest block is an idempotent no-op returning
// the stored record and appended=false, so at-least-once retries never
// duplicate history.
//
// The write is a compare-and-swap on the block's version column; a lost
// race re-reads the chain and tries again, so two interleaved appends
// never overwrite each other's records.
func (s *Service) Append(characterID string, rec model.Record) (*model.Record, bool, error) {
	for attempt := 0; attempt < appendAttempts; attempt++ {
		stored, appended, err := s.tryAppend(characterID, rec)
		if err != nil && errs.IsConflict(err) {
			continue
		}
		return stored, appended, err
	}
	return nil, false, errs.Conflict("history of character %s is contended", characterID)
}

func (s *Service) tryAppend(characterID string, rec model.Record) (*model.Record, bool, error) {
	blocks, err := s.Latest(characterID, 1)
	if err != nil {
		return nil, false, err
	}

	var block *model.HistoryBlock
	var records []model.Record
	nextNumber := 1

	if len(blocks) == 0 {
		block, err = s.newBlock(characterID, nil)
		if err != nil {
			return nil, false, err
		}
	} else {
		block = &blocks[0]
		records, err = block.Records()
		if err != nil {
			return nil, false, errs.Internal(err, "decoding block %d", block.BlockNumber)
		}
		for i := range records {
			if records[i].ID == rec.ID {
				stored := records[i]
				return &stored, false, nil
			}
		}
		if len(records) > 0 {
			nextNumber = records[len(records)-1].Number + 1
		}
		if len(records) >= s.capacity {
			block, err = s.newBlock(characterID, block)
			if err != nil {
				return nil, false, err
			}
			records = nil
		}
	}

	rec.Number = nextNumber
	records = append(records, rec)
	if err := block.SetRecords(records); err != nil {
		return nil, false, errs.Internal(err, "encoding block %d", block.BlockNumber)
	}

	res := s.db.Model(&model.HistoryBlock{}).
		Where("id = ? AND version = ?", block.ID, block.Version).
		Updates(map[string]interface{}{
			"changes": block.Changes,
			"version": block.Version + 1,
		})
	if res.Error != nil {
		return nil, false, errs.Internal(res.Error, "appending to block %d", block.BlockNumber)
	}
	if res.RowsAffected == 0 {
		return nil, false, errs.Conflict("history block %d changed concurrently", block.BlockNumber)
	}

	s.logger.Debug("history record appended",
		zap.String("character_id", characterID),
		zap.Int("block", block.BlockNumber),
		zap.Int("number", rec.Number),
		zap.String("type", string(rec.Type)),
	)
	return &rec, true, nil
}

// LatestRecord returns the character's most recent record together with
// the block holding it. Blocks are created on first append and trailing
// empty blocks do not occur, but the scan still walks backwards to be
// safe against one.
func (s *Service) LatestRecord(characterID string) (*model.Record, *model.HistoryBlock, error) {
	blocks, err := s.Latest(characterID, 2)
	if err != nil {
		return nil, nil, err
	}
	for i := range blocks {
		records, err := blocks[i].Records()
		if err != nil {
			return nil, nil, errs.Internal(err, "decoding block %d", blocks[i].BlockNumber)
		}
		if len(records) > 0 {
			rec := records[len(records)-1]
			return &rec, &blocks[i], nil
		}
	}
	return nil, nil, errs.NotFound("character has no history records")
}

// SetComment updates the comment of one record, addressed by record id.
// All other record fields stay immutable. The lookup is a linear scan
// from the most recent block backwards: comments overwhelmingly target
// recent events and per-character history is capacity-bounded per block,
// so no record-id index is kept.
func (s *Service) SetComment(characterID, recordID string, comment *string) (*model.Record, error) {
	var blocks []model.HistoryBlock
	err := s.db.Where("character_id = ?", characterID).
		Order("block_number DESC").
		Find(&blocks).Error
	if err != nil {
		return nil, errs.Internal(err, "loading history blocks")
	}

	for i := range blocks {
		block := &blocks[i]
		records, err := block.Records()
		if err != nil {
			return nil, errs.Internal(err, "decoding block %d", block.BlockNumber)
		}
		for j := range records {
			if records[j].ID != recordID {
				continue
			}
			records[j].Comment = comment
			if err := block.SetRecords(records); err != nil {
				return nil, errs.Internal(err, "encoding block %d", block.BlockNumber)
			}
			res := s.db.Model(&model.HistoryBlock{}).
				Where("id = ? AND version = ?", block.ID, block.Version).
				Updates(map[string]interface{}{
					"changes": block.Changes,
					"version": block.Version + 1,
				})
			if res.Error != nil {
				return nil, errs.Internal(res.Error, "updating block %d", block.BlockNumber)
			}
			if res.RowsAffected == 0 {
				return nil, errs.Conflict("history block %d changed concurrently", block.BlockNumber)
			}
			rec := records[j]
			return &rec, nil
		}
	}
	return nil, errs.NotFound("history record %s not found", recordID)
}

// DeleteAll removes every block of a character. Used when the character
// itself is deleted; the ledger is owned by its character and never
// shared.
func (s *Service) DeleteAll(characterID string) error {
	err := s.db.Where("character_id = ?", characterID).Delete(&model.HistoryBlock{}).Error
	if err != nil {
		return errs.Internal(err, "deleting history")
	}
	return nil
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
