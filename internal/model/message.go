// Package model defines data structures for the security core.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Flavor identifies one of the mutually exclusive conversation contexts
// the app presents. Each flavor has its own message history and its own
// decoy behavior.
type Flavor string

const (
	// FlavorVault is the primary protected conversation context.
	FlavorVault Flavor = "vault"
	// FlavorJournal is the private journaling context.
	FlavorJournal Flavor = "journal"
	// FlavorCasual is the low-friction context: it is exempt from
	// passcode and motion locking.
	FlavorCasual Flavor = "casual"
)

// Flavors lists every conversation context.
var Flavors = []Flavor{FlavorVault, FlavorJournal, FlavorCasual}

// Valid reports whether the flavor is one of the known flavors.
func (f Flavor) Valid() bool {
	switch f {
	case FlavorVault, FlavorJournal, FlavorCasual:
		return true
	}
	return false
}

// LockExempt reports whether this flavor bypasses passcode and motion
// locking entirely.
func (f Flavor) LockExempt() bool {
	return f == FlavorCasual
}

// Message represents a single conversation message. Text is mutable for
// one purpose only: the secure-overwrite step that precedes removal.
// A message is created directly into its destination collection (real or
// decoy) and never moves between them.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Flavor    Flavor    `json:"flavor"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendMessageRequest is the request to append a message to a flavor.
type AppendMessageRequest struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ListMessagesResponse is the response for listing visible messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}
