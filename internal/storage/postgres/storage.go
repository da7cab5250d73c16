package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/jonatasJS/back-end/internal/messages"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         BIGSERIAL PRIMARY KEY,
	text       TEXT,
	file       TEXT,
	user_name  TEXT        NOT NULL,
	color      TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at, id);
`

type Storage struct {
	db *sqlx.DB
}

func New(ctx context.Context, dsn string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: apply schema: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) AddMessage(ctx context.Context, m messages.Message) (messages.Message, error) {
	const op = "storage.postgres.AddMessage"

	var saved messages.Message

	err := s.db.QueryRowxContext(
		ctx,
		`INSERT INTO messages (text, file, user_name, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id, text, file, user_name, color, created_at`,
		m.Text, m.File, m.User, m.Color,
	).StructScan(&saved)

	if err != nil {
		return messages.Message{}, fmt.Errorf("%s: insert message: %w", op, err)
	}

	return saved, nil
}

func (s *Storage) Messages(ctx context.Context) ([]messages.Message, error) {
	const op = "storage.postgres.Messages"

	msgs := []messages.Message{}

	err := s.db.SelectContext(
		ctx,
		&msgs,
		`SELECT id, text, file, user_name, color, created_at
		FROM messages
		ORDER BY created_at ASC, id ASC`,
	)

	if err != nil {
		return nil, fmt.Errorf("%s: select messages: %w", op, err)
	}

	return msgs, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
