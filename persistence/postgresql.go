// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/znichola/red-tetris/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 数据库实现，和 GormPostgreSQL 共用 score_records 表
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS score_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ,
            updated_at TIMESTAMPTZ,
            deleted_at TIMESTAMPTZ,
            player TEXT NOT NULL,
            game_mode TEXT NOT NULL,
            score BIGINT NOT NULL,
            played_at TIMESTAMPTZ NOT NULL,
            winner BOOLEAN DEFAULT FALSE
        )
    `)
	if err != nil {
		return err
	}

	// 索引名和 gorm 模型一致
	_, err = db.ExecContext(ctx, `
        CREATE UNIQUE INDEX IF NOT EXISTS idx_player_mode ON score_records(player, game_mode);
        CREATE INDEX IF NOT EXISTS idx_score_records_score ON score_records(score);
        CREATE INDEX IF NOT EXISTS idx_score_records_deleted_at ON score_records(deleted_at);
    `)
	return err
}

// PushPlayerScores 只有更高的分数才会覆盖已有记录
func (p *PostgreSQL) PushPlayerScores(scores []models.PlayerScore, mode, winner string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO score_records (player, game_mode, score, played_at, winner, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $4, $4)
        ON CONFLICT (player, game_mode)
        DO UPDATE SET score = EXCLUDED.score, played_at = EXCLUDED.played_at,
            winner = EXCLUDED.winner, updated_at = EXCLUDED.updated_at
        WHERE score_records.score < EXCLUDED.score
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, score := range scores {
		isWinner := winner != "" && score.Name == winner
		if _, err := stmt.ExecContext(ctx, score.Name, mode, score.Score, now, isWinner); err != nil {
			return fmt.Errorf("push score for %s: %w", score.Name, err)
		}
	}
	return tx.Commit()
}

func (p *PostgreSQL) AllScores() ([]models.ScoreRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT player, score, played_at, game_mode, winner
        FROM score_records
        WHERE deleted_at IS NULL
        ORDER BY score DESC, player ASC, game_mode ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ScoreRecord
	for rows.Next() {
		var r models.ScoreRecord
		if err := rows.Scan(&r.Player, &r.Score, &r.Time, &r.GameMode, &r.Winner); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
