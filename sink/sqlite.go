package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hupe1980/groupflow/core"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TurnRecord is the persisted form of a turn. One row per accepted turn.
type TurnRecord struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	ConversationID   string `gorm:"index:idx_conversation_seq,unique,priority:1"`
	Sequence         int    `gorm:"index:idx_conversation_seq,unique,priority:2"`
	TurnID           string
	SpeakerName      string
	SpeakerRole      string
	Content          string
	PromptTokens     int
	CompletionTokens int
	CreatedAt        time.Time
}

// TableName sets the table used by gorm.
func (TurnRecord) TableName() string { return "turns" }

// SQLite persists turns to a SQLite database. The zero value is not usable;
// construct with NewSQLite or OpenSQLite.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a database at path and migrates the schema.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	return NewSQLite(db)
}

// NewSQLite wraps an existing gorm handle and migrates the schema.
func NewSQLite(db *gorm.DB) (*SQLite, error) {
	if err := db.AutoMigrate(&TurnRecord{}); err != nil {
		return nil, fmt.Errorf("migrate turns table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// OnTurn implements Sink.
func (s *SQLite) OnTurn(ctx context.Context, conversationID string, turn core.Turn) error {
	rec := TurnRecord{
		ConversationID: conversationID,
		Sequence:       turn.Sequence,
		TurnID:         turn.ID,
		SpeakerName:    turn.Speaker.Name,
		SpeakerRole:    string(turn.Speaker.Role),
		Content:        turn.Message.Content,
		CreatedAt:      turn.Timestamp,
	}
	if turn.Message.Usage != nil {
		rec.PromptTokens = turn.Message.Usage.PromptTokens
		rec.CompletionTokens = turn.Message.Usage.CompletionTokens
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("persist turn %d: %w", turn.Sequence, err)
	}
	return nil
}

// Turns returns the persisted turns of a conversation in sequence order.
func (s *SQLite) Turns(ctx context.Context, conversationID string) ([]TurnRecord, error) {
	var recs []TurnRecord
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sequence ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	return recs, nil
}
