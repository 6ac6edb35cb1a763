// Package eraser destroys message content with best-effort forensic
// hygiene: every payload is overwritten with random printable noise of
// identical length before the message is removed from its collection.
//
// The overwrite mitigates in-memory and runtime inspection. It is not a
// substitute for encryption at rest: a persistence layer outside this
// process may retain earlier snapshots this package cannot reach.
package eraser

import (
	"crypto/rand"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/internal/store"
	"github.com/veilchat/security-core/pkg/logger"
	"github.com/veilchat/security-core/pkg/metrics"
)

const (
	printableLow  = 33  // '!'
	printableHigh = 126 // '~'
)

// Eraser overwrites and removes messages from the store.
type Eraser struct {
	store  *store.Store
	logger *logger.Logger
}

// New creates an eraser operating on the given store.
func New(st *store.Store, log *logger.Logger) *Eraser {
	return &Eraser{
		store:  st,
		logger: log.WithComponent("eraser"),
	}
}

// Wipe overwrites the text of every given message in place. The messages
// are not removed; callers that own a collection remove them afterwards.
func (e *Eraser) Wipe(messages []*model.Message) {
	for _, m := range messages {
		Overwrite(m)
	}
}

// WipeFlavor overwrites and removes every real message with the given
// flavor and burns that flavor's decoy set. Decoy mode is left untouched:
// the user stays inside the decoy view while the real content underneath
// is destroyed. Returns the number of erased messages.
func (e *Eraser) WipeFlavor(flavor model.Flavor) int {
	n := e.store.RemoveRealByFlavor(flavor, Overwrite)
	metrics.MessagesWipedTotal.WithLabelValues("flavor").Add(float64(n))
	e.logger.Info("flavor wiped", zap.String("flavor", string(flavor)), zap.Int("messages", n))
	return n
}

// WipeAll overwrites and removes every real message and every flavor's
// custom decoy messages, and burns every decoy set. The caller (the lock
// state coordinator, on the panic path) is responsible for forcing decoy
// mode off afterwards. Returns the number of erased messages.
func (e *Eraser) WipeAll() int {
	n := e.store.RemoveAll(Overwrite)
	metrics.MessagesWipedTotal.WithLabelValues("all").Add(float64(n))
	e.logger.Info("all content wiped", zap.Int("messages", n))
	return n
}

// Overwrite replaces the message text with a fresh random string of
// identical character length, each character drawn uniformly from the
// printable ASCII range 33-126.
func Overwrite(msg *model.Message) {
	msg.Text = noise(utf8.RuneCountInString(msg.Text))
}

func noise(length int) string {
	if length == 0 {
		return ""
	}

	const span = printableHigh - printableLow + 1
	out := make([]byte, 0, length)
	buf := make([]byte, length)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand failing means the platform RNG is broken;
			// degrade to a fixed fill rather than abort the wipe.
			for len(out) < length {
				out = append(out, printableLow)
			}
			break
		}
		for _, b := range buf {
			// Rejection sampling keeps the distribution uniform.
			if b >= span*(256/span) {
				continue
			}
			out = append(out, printableLow+b%span)
			if len(out) == length {
				break
			}
		}
	}

	return string(out)
}
