package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// JSONMap persists arbitrary payload fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// Notification is the persisted per-user notification record. UserID scopes
// every query and live push. Title, Message, Type, and Data are opaque to the
// core and stored as given. ReadAt is monotonic: zero means unread, and once
// set it is never cleared.
type Notification struct {
	bun.BaseModel `bun:"table:notifications"`
	RecordMeta

	UserID  string  `bun:",nullzero,notnull" json:"user_id"`
	Title   string  `bun:",nullzero,notnull" json:"title"`
	Message string  `bun:",nullzero,notnull" json:"message"`
	Type    string  `bun:",nullzero" json:"type"`
	Data    JSONMap `bun:"type:jsonb,nullzero" json:"data,omitempty"`

	ReadAt time.Time `bun:",nullzero" json:"read_at,omitempty"`
}

// Unread reports whether the notification has not been read yet.
func (n *Notification) Unread() bool {
	return n.ReadAt.IsZero()
}
