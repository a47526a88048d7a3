// Package domain defines the persistence models for conversations and
// messages. These types are mapped with GORM and form the core data layer
// of the chat backend. The same JSON shapes are served by the HTTP API and
// by the client-side fallback store, so both stores stay schema-compatible.
package domain

import (
	"time"
)

// Message type values. The set is closed: anything else is rejected at the
// boundary and never reaches storage.
const (
	MessageTypeUser  = "user"
	MessageTypeAI    = "ai"
	MessageTypeError = "error"
)

// MaxContentLength is the upper bound, in runes, enforced on message content
// before any store is touched.
const MaxContentLength = 1000

// DefaultTitle is applied when a conversation is created without a title.
const DefaultTitle = "New Conversation"

// ValidMessageType reports whether t is one of the allowed message types.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeUser, MessageTypeAI, MessageTypeError:
		return true
	}
	return false
}

// Conversation is a named, ordered collection of messages.
//
// MessageCount and LastMessageAt are derived from the messages table on
// read; they are never stored. UserID is reserved for future authentication
// and stays nullable and unused.
type Conversation struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    *string   `json:"user_id,omitempty" gorm:"type:varchar(64);index:idx_user_convs"`
	Title     string    `json:"title"      gorm:"type:varchar(255);not null;default:'New Conversation'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MessageCount  int64      `json:"message_count"             gorm:"-"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" gorm:"-"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is one turn in a conversation, tagged as user input, AI output,
// or an error surfaced to the user. Messages are immutable in ordering:
// listings are always ascending by Timestamp.
type Message struct {
	ID             int64     `json:"id"              gorm:"primaryKey;autoIncrement"`
	ConversationID int64     `json:"conversation_id" gorm:"not null;index:idx_conv_msgs,priority:1"`
	Content        string    `json:"content"         gorm:"type:text;not null"`
	Type           string    `json:"type"            gorm:"type:varchar(8);not null;check:type IN ('user','ai','error')"`
	Timestamp      time.Time `json:"timestamp"       gorm:"index:idx_conv_msgs,priority:2"`

	// Conversation is the parent. Messages are cascade-deleted when their
	// conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// User is reserved schema: the table is migrated so user_id references have
// somewhere to point once authentication lands, but nothing writes to it.
type User struct {
	ID        string    `json:"id"   gorm:"type:varchar(64);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
