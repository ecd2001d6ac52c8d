// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/znichola/red-tetris/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	return openGorm(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
}

func openGorm(dialector gorm.Dialector, cfg *gorm.Config) (*GormPostgreSQL, error) {
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormScoreRecord{}); err != nil {
		return nil, fmt.Errorf("migrate score records: %w", err)
	}

	return &GormPostgreSQL{db: db}, nil
}

// PushPlayerScores 在一个事务里写入整局的分数
func (p *GormPostgreSQL) PushPlayerScores(scores []models.PlayerScore, mode, winner string) error {
	now := time.Now()
	return p.db.Transaction(func(tx *gorm.DB) error {
		for _, score := range scores {
			if err := upsertBest(tx, models.GormScoreRecord{
				Player:   score.Name,
				GameMode: mode,
				Score:    score.Score,
				PlayedAt: now,
				Winner:   winner != "" && score.Name == winner,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertBest(tx *gorm.DB, record models.GormScoreRecord) error {
	var existing models.GormScoreRecord
	err := tx.Where("player = ? AND game_mode = ?", record.Player, record.GameMode).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&record).Error
	}
	if err != nil {
		return err
	}

	if record.Score <= existing.Score {
		return nil
	}
	existing.Score = record.Score
	existing.PlayedAt = record.PlayedAt
	existing.Winner = record.Winner
	return tx.Save(&existing).Error
}

func (p *GormPostgreSQL) AllScores() ([]models.ScoreRecord, error) {
	var rows []models.GormScoreRecord
	if err := p.db.Order("score desc, player asc, game_mode asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.ScoreRecord, len(rows))
	for i, row := range rows {
		records[i] = row.ToRecord()
	}
	return records, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
