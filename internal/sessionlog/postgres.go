package sessionlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"
)

// Open connects to Postgres, retrying the first ping while the database
// comes up.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := retry.WithMaxRetries(9, retry.NewFibonacci(500*time.Millisecond))
	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			slog.Info("waiting for database", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	slog.Info("connected to database")
	return db, nil
}

// Migrate applies the schema migrations found at source.
func Migrate(source, dsn string) error {
	m, err := migrate.New(source, dsn)
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	slog.Info("migrations applied", "source", source)
	return nil
}

type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) Record(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO session_records (
			session_id, ended_at, condition, classical_score, neighbor_score,
			score, questions_asked, symptoms_confirmed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.SessionID, rec.EndedAt, rec.Condition, rec.ClassicalScore, rec.NeighborScore,
		rec.Score, rec.QuestionsAsked, rec.SymptomsConfirmed)
	if err != nil {
		return fmt.Errorf("failed to insert session record: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT session_id, ended_at, condition, classical_score, neighbor_score,
			score, questions_asked, symptoms_confirmed
		FROM session_records
		ORDER BY ended_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.SessionID,
			&rec.EndedAt,
			&rec.Condition,
			&rec.ClassicalScore,
			&rec.NeighborScore,
			&rec.Score,
			&rec.QuestionsAsked,
			&rec.SymptomsConfirmed,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
