// apps/go-server/internal/scores/store.go
//
// Persistence for finished-game scores and the leaderboard.
// One row per terminal game; guests are never persisted (the sink adapter
// skips them, mirroring the original "not logged in, score not saved").

package scores

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recall/apps/go-server/internal/engine"
)

// Store wraps score queries over a shared DB handle.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records one finished game for a user.
func (s *Store) Insert(ctx context.Context, userID string, score int, mode string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (user_id, score, mode, created_at) VALUES (?,?,?,?)`,
		userID, score, mode, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Row is one leaderboard entry.
type Row struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
	Mode     string `json:"mode"`
}

// Leaderboard returns the top scores joined with usernames,
// highest first. Default limit is 10.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.username, sc.score, sc.mode
		 FROM scores sc JOIN users u ON u.id = sc.user_id
		 ORDER BY sc.score DESC, sc.created_at ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Username, &r.Score, &r.Mode); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SinkFor returns an engine.ScoreSink bound to userID. An empty userID
// (guest session) yields a logged no-op sink.
func (s *Store) SinkFor(userID string) engine.ScoreSink {
	return engine.SinkFunc(func(ctx context.Context, score int, mode engine.Mode) error {
		if userID == "" {
			log.Debug().Int("score", score).Msg("guest game over, score not saved")
			return nil
		}
		return s.Insert(ctx, userID, score, string(mode))
	})
}
