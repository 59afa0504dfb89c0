package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/sketch-friends/internal/types"
)

// characterModel maps to the characters table. Settings, versions, and
// history are stored as JSONB so every write stays a whole-record write.
type characterModel struct {
	ID                  string `gorm:"primaryKey"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Settings            json.RawMessage `gorm:"type:jsonb"`
	Versions            json.RawMessage `gorm:"type:jsonb"`
	CurrentVersionIndex int
	IsSetupComplete     bool
	ConversationHistory json.RawMessage `gorm:"type:jsonb"`
}

func (characterModel) TableName() string {
	return "characters"
}

// PostgresStore persists characters in PostgreSQL via gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens the pool, pings it, and migrates the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&characterModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate characters table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

func (s *PostgresStore) List(ctx context.Context) ([]*types.Character, error) {
	var records []characterModel
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}

	results := make([]*types.Character, 0, len(records))
	for _, record := range records {
		character, err := characterFromModel(record)
		if err != nil {
			return nil, err
		}
		results = append(results, character)
	}
	return results, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*types.Character, error) {
	var record characterModel
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get character by id: %w", err)
	}
	return characterFromModel(record)
}

func (s *PostgresStore) Upsert(ctx context.Context, character *types.Character) error {
	if character == nil {
		return fmt.Errorf("character cannot be nil")
	}
	record, err := characterToModel(character)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to upsert character: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&characterModel{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}

func characterToModel(character *types.Character) (characterModel, error) {
	settings, err := json.Marshal(character.Settings)
	if err != nil {
		return characterModel{}, fmt.Errorf("failed to encode character settings: %w", err)
	}
	versions, err := json.Marshal(character.Versions)
	if err != nil {
		return characterModel{}, fmt.Errorf("failed to encode character versions: %w", err)
	}
	history, err := json.Marshal(character.ConversationHistory)
	if err != nil {
		return characterModel{}, fmt.Errorf("failed to encode conversation history: %w", err)
	}

	return characterModel{
		ID:                  character.ID,
		CreatedAt:           character.CreatedAt,
		Settings:            settings,
		Versions:            versions,
		CurrentVersionIndex: character.CurrentVersionIndex,
		IsSetupComplete:     character.IsSetupComplete,
		ConversationHistory: history,
	}, nil
}

func characterFromModel(record characterModel) (*types.Character, error) {
	character := &types.Character{
		ID:                  record.ID,
		CreatedAt:           record.CreatedAt,
		CurrentVersionIndex: record.CurrentVersionIndex,
		IsSetupComplete:     record.IsSetupComplete,
	}
	if err := json.Unmarshal(record.Settings, &character.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode character settings: %w", err)
	}
	if err := json.Unmarshal(record.Versions, &character.Versions); err != nil {
		return nil, fmt.Errorf("failed to decode character versions: %w", err)
	}
	if err := json.Unmarshal(record.ConversationHistory, &character.ConversationHistory); err != nil {
		return nil, fmt.Errorf("failed to decode conversation history: %w", err)
	}
	return character, nil
}
