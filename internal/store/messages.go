// Package store owns the in-memory message collections: one shared real
// collection partitioned by flavor, and one decoy set per flavor.
//
// The store is deliberately the only holder of message pointers, so the
// secure eraser can overwrite payloads in place before removal. Persistence
// of conversation content is an external concern; anything durable outside
// this process is beyond the reach of the secure-wipe guarantee.
package store

import (
	"sync"

	"github.com/veilchat/security-core/internal/model"
)

// DecoySet is the decoy state for one flavor. When Burned is true the
// effective visible decoy content is empty regardless of PresetKey or
// Custom, until a new message is appended.
type DecoySet struct {
	PresetKey string
	Custom    []*model.Message
	Burned    bool
}

// Store holds all conversation content.
type Store struct {
	mu     sync.RWMutex
	real   []*model.Message
	decoys map[model.Flavor]*DecoySet
}

// New creates an empty store with a decoy set per flavor.
func New() *Store {
	decoys := make(map[model.Flavor]*DecoySet, len(model.Flavors))
	for _, f := range model.Flavors {
		decoys[f] = &DecoySet{}
	}
	return &Store{decoys: decoys}
}

// AppendReal adds a message to the real collection.
func (s *Store) AppendReal(msg *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.real = append(s.real, msg)
}

// AppendDecoy adds a message to the flavor's custom decoy sequence and
// clears its burned flag.
func (s *Store) AppendDecoy(flavor model.Flavor, msg *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.decoys[flavor]
	set.Custom = append(set.Custom, msg)
	set.Burned = false
}

// RealByFlavor returns copies of the real messages with the given flavor,
// in insertion order.
func (s *Store) RealByFlavor(flavor model.Flavor) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Message
	for _, m := range s.real {
		if m.Flavor == flavor {
			out = append(out, *m)
		}
	}
	return out
}

// RealCount returns the number of real messages across all flavors.
func (s *Store) RealCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.real)
}

// DecoyView returns a snapshot of the flavor's decoy state: the preset
// key, copies of the custom messages, and the burned flag.
func (s *Store) DecoyView(flavor model.Flavor) (presetKey string, custom []model.Message, burned bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.decoys[flavor]
	for _, m := range set.Custom {
		custom = append(custom, *m)
	}
	return set.PresetKey, custom, set.Burned
}

// SetPreset selects the preset decoy collection for a flavor.
func (s *Store) SetPreset(flavor model.Flavor, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decoys[flavor].PresetKey = key
}

// ClearBurned resets the burned flag for every flavor. Called when decoy
// mode is exited so the preset view is available again on re-entry.
func (s *Store) ClearBurned() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.decoys {
		set.Burned = false
	}
}

// RemoveRealByFlavor overwrites each real message with the given flavor
// via overwrite, removes them from the collection, and burns the flavor's
// decoy set. Every overwrite completes before any removal happens.
// Returns the number of removed messages.
func (s *Store) RemoveRealByFlavor(flavor model.Flavor, overwrite func(*model.Message)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*model.Message
	var doomed []*model.Message
	for _, m := range s.real {
		if m.Flavor == flavor {
			doomed = append(doomed, m)
		} else {
			kept = append(kept, m)
		}
	}

	for _, m := range doomed {
		overwrite(m)
	}
	s.real = kept
	s.decoys[flavor].Burned = true

	return len(doomed)
}

// RemoveAll overwrites every real message and every flavor's custom decoy
// messages via overwrite, clears both collections, and burns every decoy
// set. Every overwrite completes before any removal happens. Returns the
// number of removed messages.
func (s *Store) RemoveAll(overwrite func(*model.Message)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, m := range s.real {
		overwrite(m)
		count++
	}
	for _, set := range s.decoys {
		for _, m := range set.Custom {
			overwrite(m)
			count++
		}
	}

	s.real = nil
	for _, set := range s.decoys {
		set.Custom = nil
		set.Burned = true
	}

	return count
}
