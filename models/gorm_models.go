// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormScoreRecord 分数记录模型，每个玩家每种模式只保留最高分
type GormScoreRecord struct {
	gorm.Model
	Player   string    `gorm:"uniqueIndex:idx_player_mode;not null"`
	GameMode string    `gorm:"uniqueIndex:idx_player_mode;not null"`
	Score    int       `gorm:"not null;index"`
	PlayedAt time.Time `gorm:"not null"`
	Winner   bool      `gorm:"default:false"`
}

// TableName keeps the table shared with the database/sql store.
func (GormScoreRecord) TableName() string {
	return "score_records"
}

// ToRecord converts the row to its wire form.
func (m GormScoreRecord) ToRecord() ScoreRecord {
	return ScoreRecord{
		Player:   m.Player,
		Score:    m.Score,
		Time:     m.PlayedAt,
		GameMode: m.GameMode,
		Winner:   m.Winner,
	}
}
