package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jonatasJS/back-end/internal/messages"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER  PRIMARY KEY AUTOINCREMENT,
	text       TEXT,
	file       TEXT,
	user_name  TEXT     NOT NULL,
	color      TEXT     NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at, id);
`

type Storage struct {
	db *sqlx.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sqlx.Open("sqlite3", storagePath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: apply schema: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) AddMessage(ctx context.Context, m messages.Message) (messages.Message, error) {
	const op = "storage.sqlite.AddMessage"

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO messages (text, file, user_name, color) VALUES (?, ?, ?, ?)`,
		m.Text, m.File, m.User, m.Color,
	)
	if err != nil {
		return messages.Message{}, fmt.Errorf("%s: insert message: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return messages.Message{}, fmt.Errorf("%s: get last insert id: %w", op, err)
	}

	var saved messages.Message
	err = s.db.GetContext(
		ctx,
		&saved,
		`SELECT id, text, file, user_name, color, created_at FROM messages WHERE id = ?`,
		id,
	)
	if err != nil {
		return messages.Message{}, fmt.Errorf("%s: read back message: %w", op, err)
	}

	return saved, nil
}

func (s *Storage) Messages(ctx context.Context) ([]messages.Message, error) {
	const op = "storage.sqlite.Messages"

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
