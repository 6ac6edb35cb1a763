package model

import (
	"time"
)

// MotionSample is one 3-axis accelerometer reading, in units of g.
// Samples arrive at a fixed interval (roughly 100ms).
type MotionSample struct {
	X  float64   `json:"x"`
	Y  float64   `json:"y"`
	Z  float64   `json:"z"`
	At time.Time `json:"at"`
}

// PressEvent is a discrete hardware button press delivered by the
// platform event source.
type PressEvent struct {
	Button string    `json:"button"`
	At     time.Time `json:"at"`
}

// LifecyclePhase is an app foreground/background transition.
type LifecyclePhase string

const (
	PhaseForeground LifecyclePhase = "foreground"
	PhaseBackground LifecyclePhase = "background"
)

// LifecycleEvent is an app lifecycle transition notification.
type LifecycleEvent struct {
	Phase LifecyclePhase `json:"phase"`
	At    time.Time      `json:"at"`
}

// SecurityEventType classifies content-free audit events published to
// the audit stream. Events never carry message content or passcodes.
type SecurityEventType string

const (
	EventLocked       SecurityEventType = "locked"
	EventUnlocked     SecurityEventType = "unlocked"
	EventDuressUnlock SecurityEventType = "duress_unlock"
	EventLockedOut    SecurityEventType = "locked_out"
	EventFlavorWiped  SecurityEventType = "flavor_wiped"
	EventPanicWipe    SecurityEventType = "panic_wipe"
)

// SecurityEvent is a content-free audit record of a security transition.
type SecurityEvent struct {
	ID        string            `json:"id"`
	Type      SecurityEventType `json:"type"`
	Flavor    Flavor            `json:"flavor,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
