package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veilchat/security-core/internal/model"
)

func msg(flavor model.Flavor, text string) *model.Message {
	return &model.Message{
		ID:     fmt.Sprintf("m-%s-%s", flavor, text),
		Role:   model.RoleUser,
		Text:   text,
		Flavor: flavor,
	}
}

func TestRealByFlavorPartitions(t *testing.T) {
	s := New()
	s.AppendReal(msg(model.FlavorVault, "a"))
	s.AppendReal(msg(model.FlavorJournal, "b"))
	s.AppendReal(msg(model.FlavorVault, "c"))

	vault := s.RealByFlavor(model.FlavorVault)
	assert.Len(t, vault, 2)
	assert.Equal(t, "a", vault[0].Text)
	assert.Equal(t, "c", vault[1].Text)
	assert.Len(t, s.RealByFlavor(model.FlavorJournal), 1)
	assert.Equal(t, 3, s.RealCount())
}

func TestRealByFlavorReturnsCopies(t *testing.T) {
	s := New()
	s.AppendReal(msg(model.FlavorVault, "original"))

	view := s.RealByFlavor(model.FlavorVault)
	view[0].Text = "tampered"

	assert.Equal(t, "original", s.RealByFlavor(model.FlavorVault)[0].Text)
}

func TestAppendDecoyClearsBurn(t *testing.T) {
	s := New()
	s.RemoveRealByFlavor(model.FlavorVault, func(*model.Message) {})

	_, _, burned := s.DecoyView(model.FlavorVault)
	assert.True(t, burned)

	s.AppendDecoy(model.FlavorVault, msg(model.FlavorVault, "fresh"))
	_, custom, burned := s.DecoyView(model.FlavorVault)
	assert.False(t, burned)
	assert.Len(t, custom, 1)
}

func TestRemoveRealByFlavorOverwritesBeforeRemoval(t *testing.T) {
	s := New()
	s.AppendReal(msg(model.FlavorVault, "one"))
	s.AppendReal(msg(model.FlavorVault, "two"))
	s.AppendReal(msg(model.FlavorJournal, "keep"))

	var overwritten []string
	n := s.RemoveRealByFlavor(model.FlavorVault, func(m *model.Message) {
		// At overwrite time the collection still holds every doomed
		// message; removal only happens after the loop.
		overwritten = append(overwritten, m.Text)
		m.Text = "xxx"
	})

	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{"one", "two"}, overwritten)
	assert.Empty(t, s.RealByFlavor(model.FlavorVault))
	assert.Len(t, s.RealByFlavor(model.FlavorJournal), 1)

	_, _, burned := s.DecoyView(model.FlavorVault)
	assert.True(t, burned)
	_, _, burned = s.DecoyView(model.FlavorJournal)
	assert.False(t, burned)
}

func TestRemoveAllCoversDecoyContent(t *testing.T) {
	s := New()
	s.AppendReal(msg(model.FlavorVault, "real"))
	s.AppendDecoy(model.FlavorJournal, msg(model.FlavorJournal, "decoy"))

	n := s.RemoveAll(func(m *model.Message) { m.Text = "xxx" })
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, s.RealCount())

	for _, f := range model.Flavors {
		_, custom, burned := s.DecoyView(f)
		assert.Empty(t, custom)
		assert.True(t, burned)
	}
}

func TestClearBurned(t *testing.T) {
	s := New()
	s.RemoveAll(func(*model.Message) {})
	s.ClearBurned()

	for _, f := range model.Flavors {
		_, _, burned := s.DecoyView(f)
		assert.False(t, burned)
	}
}

func TestSetPreset(t *testing.T) {
	s := New()
	s.SetPreset(model.FlavorCasual, "smalltalk")

	key, _, _ := s.DecoyView(model.FlavorCasual)
	assert.Equal(t, "smalltalk", key)
}
