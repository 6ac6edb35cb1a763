package decoy

import (
	"fmt"

	"github.com/veilchat/security-core/internal/model"
)

// presetEntry is one line of a bundled decoy conversation.
type presetEntry struct {
	role model.Role
	text string
}

// Bundled preset conversations. Content is intentionally mundane.
var presets = map[string][]presetEntry{
	"recipes": {
		{model.RoleUser, "What's an easy weeknight pasta?"},
		{model.RoleAssistant, "Aglio e olio is hard to beat: spaghetti, olive oil, garlic, chili flakes, parsley. About 15 minutes end to end."},
		{model.RoleUser, "Can I add protein to that?"},
		{model.RoleAssistant, "Shrimp works well. Add it to the garlic oil for the last 3-4 minutes so it doesn't overcook."},
	},
	"smalltalk": {
		{model.RoleUser, "Any good shows lately?"},
		{model.RoleAssistant, "Depends what you're into. If you liked slow-burn mysteries, there are a few solid picks this season."},
		{model.RoleUser, "Mysteries, definitely."},
		{model.RoleAssistant, "Then start with the nordic one everyone's talking about. Eight episodes, doesn't overstay its welcome."},
	},
	"trivia": {
		{model.RoleUser, "What's the tallest mountain not in Asia?"},
		{model.RoleAssistant, "Aconcagua in Argentina, at 6,961 meters. It's also the tallest peak in both the Western and Southern Hemispheres."},
		{model.RoleUser, "Huh, I would have guessed Denali."},
		{model.RoleAssistant, "Denali is the tallest in North America at 6,190 meters, so a fair guess, just a bit short."},
	},
}

// PresetKeys returns the bundled preset keys.
func PresetKeys() []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	return keys
}

// PresetExists reports whether key names a bundled preset.
func PresetExists(key string) bool {
	_, ok := presets[key]
	return ok
}

// PresetMessages materializes the preset named by key for a flavor.
// Returns nil for an empty or unknown key.
func PresetMessages(key string, flavor model.Flavor) []model.Message {
	entries, ok := presets[key]
	if !ok {
		return nil
	}

	out := make([]model.Message, 0, len(entries))
	for i, e := range entries {
		out = append(out, model.Message{
			ID:     fmt.Sprintf("preset-%s-%d", key, i),
			Role:   e.role,
			Text:   e.text,
			Flavor: flavor,
		})
	}
	return out
}
