package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/habedi/apiclient/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one JSON-encoded value in the credential store.
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// EntryStore is a GORM-backed implementation of storage.CredentialStore.
// Use constructor NewEntryStore to obtain an instance.
type EntryStore struct{ db *gorm.DB }

var _ storage.CredentialStore = (*EntryStore)(nil)

// NewEntryStore creates an EntryStore. Accepts *gorm.DB to avoid global access.
func NewEntryStore(db *gorm.DB) *EntryStore { return &EntryStore{db: db} }

func (s *EntryStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("store not initialized")
	}
	var entry Entry
	err := s.db.WithContext(ctx).First(&entry, "entry_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to read entry")
		return false, err
	}
	if err := json.Unmarshal([]byte(entry.Value), dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *EntryStore) Save(ctx context.Context, key string, value any) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	entry := Entry{Key: key, Value: string(raw), UpdatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error; err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to save entry")
		return err
	}
	log.Debug().Str("key", key).Msg("Entry saved")
	return nil
}

func (s *EntryStore) Remove(ctx context.Context, key string) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	return s.db.WithContext(ctx).Delete(&Entry{}, "entry_key = ?", key).Error
}

func (s *EntryStore) Clear(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{}).Error
}

func (s *EntryStore) Keys(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	var keys []string
	if err := s.db.WithContext(ctx).Model(&Entry{}).Order("entry_key").Pluck("entry_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
