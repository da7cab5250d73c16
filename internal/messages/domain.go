package messages

import (
	"context"
	"math/rand"
	"time"
)

// AnonymousUser is stamped on messages whose sender never announced a nickname.
const AnonymousUser = "Anônimo"

const colorAlphabet = "0123456789ABCDEF"

type Store interface {
	AddMessage(ctx context.Context, m Message) (Message, error)
	Messages(ctx context.Context) ([]Message, error)
	Close() error
}

type Message struct {
	ID        int64     `json:"id" db:"id"`
	Text      *string   `json:"text" db:"text"`
	File      *string   `json:"file" db:"file"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	User      string    `json:"user" db:"user_name"`
	Color     string    `json:"color" db:"color"`
}

// New builds a message, filling user and color defaults the way the
// persisted entity defines them. Empty user becomes AnonymousUser,
// empty color gets a fresh random one.
func New(text, file *string, user, color string) Message {
	if user == "" {
		user = AnonymousUser
	}
	if color == "" {
		color = RandomColor()
	}

	return Message{
		Text:  text,
		File:  file,
		User:  user,
		Color: color,
	}
}

// RandomColor returns a "#RRGGBB" string over the uppercase hex alphabet.
func RandomColor() string {
	b := make([]byte, 0, 7)
	b = append(b, '#')
	for i := 0; i < 6; i++ {
		b = append(b, colorAlphabet[rand.Intn(len(colorAlphabet))])
	}
	return string(b)
}
