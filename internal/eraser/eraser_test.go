package eraser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilchat/security-core/internal/model"
	"github.com/veilchat/security-core/internal/store"
	"github.com/veilchat/security-core/pkg/logger"
)

func msg(flavor model.Flavor, text string) *model.Message {
	return &model.Message{
		ID:     text,
		Role:   model.RoleUser,
		Text:   text,
		Flavor: flavor,
	}
}

func TestOverwritePreservesLengthChangesContent(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"short", "hi"},
		{"sentence", "meet me at the usual place at nine"},
		{"multibyte", "привет, как дела? 😀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := msg(model.FlavorVault, tt.text)
			Overwrite(m)

			assert.Equal(t, utf8.RuneCountInString(tt.text), len(m.Text))
			assert.NotEqual(t, tt.text, m.Text)
			for _, r := range m.Text {
				assert.GreaterOrEqual(t, r, rune(33))
				assert.LessOrEqual(t, r, rune(126))
			}
		})
	}
}

func TestOverwriteEmptyText(t *testing.T) {
	m := msg(model.FlavorVault, "")
	Overwrite(m)
	assert.Equal(t, "", m.Text)
}

func TestOverwriteIsNotConstant(t *testing.T) {
	// Two overwrites of the same long text should not collide.
	a := msg(model.FlavorVault, strings.Repeat("a", 64))
	b := msg(model.FlavorVault, strings.Repeat("a", 64))
	Overwrite(a)
	Overwrite(b)
	assert.NotEqual(t, a.Text, b.Text)
}

func TestWipeFlavor(t *testing.T) {
	st := store.New()
	st.AppendReal(msg(model.FlavorVault, "vault one"))
	st.AppendReal(msg(model.FlavorVault, "vault two"))
	st.AppendReal(msg(model.FlavorJournal, "journal entry"))

	e := New(st, logger.NewNop())
	assert.Equal(t, 2, e.WipeFlavor(model.FlavorVault))

	assert.Empty(t, st.RealByFlavor(model.FlavorVault))
	assert.Len(t, st.RealByFlavor(model.FlavorJournal), 1)

	// The wiped flavor's decoy set is burned; others are not.
	_, _, burned := st.DecoyView(model.FlavorVault)
	assert.True(t, burned)
	_, _, burned = st.DecoyView(model.FlavorJournal)
	assert.False(t, burned)
}

func TestWipeAll(t *testing.T) {
	st := store.New()
	st.AppendReal(msg(model.FlavorVault, "real a"))
	st.AppendReal(msg(model.FlavorJournal, "real b"))
	st.AppendDecoy(model.FlavorVault, msg(model.FlavorVault, "decoy a"))

	e := New(st, logger.NewNop())
	assert.Equal(t, 3, e.WipeAll())

	assert.Equal(t, 0, st.RealCount())
	for _, f := range model.Flavors {
		_, custom, burned := st.DecoyView(f)
		assert.Empty(t, custom, "flavor %s", f)
		assert.True(t, burned, "flavor %s", f)
	}
}

func TestWipeOverwritesBeforeRemoval(t *testing.T) {
	st := store.New()
	m := msg(model.FlavorVault, "sensitive content here")
	st.AppendReal(m)

	e := New(st, logger.NewNop())
	e.WipeFlavor(model.FlavorVault)

	// The original pointer was scrubbed, not just dropped.
	assert.NotEqual(t, "sensitive content here", m.Text)
	assert.Equal(t, len("sensitive content here"), len(m.Text))
}

func TestWipeSlice(t *testing.T) {
	msgs := []*model.Message{
		msg(model.FlavorVault, "one"),
		msg(model.FlavorVault, "two"),
	}

	e := New(store.New(), logger.NewNop())
	e.Wipe(msgs)

	assert.NotEqual(t, "one", msgs[0].Text)
	assert.NotEqual(t, "two", msgs[1].Text)
	require.Len(t, msgs[0].Text, 3)
	require.Len(t, msgs[1].Text, 3)
}
