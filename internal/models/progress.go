package models

// XPPerLevel is how much XP moves a player up one level.
const XPPerLevel = 100

// PlayerProgress is the per-user play-state aggregate owned by the progress
// store. The string slices carry set semantics: AddQuest/AddCodexEntry never
// insert duplicates. Slices rather than maps keep the persisted JSON shape
// stable (arrays of strings).
type PlayerProgress struct {
	CompletedQuests      []string `json:"completed_quests"`
	UnlockedCodexEntries []string `json:"unlocked_codex_entries"`
	XP                   int      `json:"xp"`
	Level                int      `json:"level"`
}

// NewPlayerProgress returns the default aggregate for a user with no saved
// state.
func NewPlayerProgress() *PlayerProgress {
	return &PlayerProgress{
		CompletedQuests:      []string{},
		UnlockedCodexEntries: []string{},
		XP:                   0,
		Level:                1,
	}
}

// LevelForXP derives the level for a total XP amount.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// AddQuest records a completed quest. Returns false when the id was already
// present.
func (p *PlayerProgress) AddQuest(questID string) bool {
	if contains(p.CompletedQuests, questID) {
		return false
	}
	p.CompletedQuests = append(p.CompletedQuests, questID)
	return true
}

// AddCodexEntry records an unlocked codex entry. Returns false when the id
// was already present.
func (p *PlayerProgress) AddCodexEntry(entryID string) bool {
	if contains(p.UnlockedCodexEntries, entryID) {
		return false
	}
	p.UnlockedCodexEntries = append(p.UnlockedCodexEntries, entryID)
	return true
}

// AddXP raises the XP total and re-derives the level. Negative amounts are
// ignored; XP never decreases.
func (p *PlayerProgress) AddXP(amount int) {
	if amount <= 0 {
		return
	}
	p.XP += amount
	p.Level = LevelForXP(p.XP)
}

// Normalize repairs an aggregate loaded from storage: nil slices become
// empty and the level is re-derived from XP so a stale or hand-edited blob
// cannot carry an inconsistent pair.
func (p *PlayerProgress) Normalize() {
	if p.CompletedQuests == nil {
		p.CompletedQuests = []string{}
	}
	if p.UnlockedCodexEntries == nil {
		p.UnlockedCodexEntries = []string{}
	}
	if p.XP < 0 {
		p.XP = 0
	}
	p.Level = LevelForXP(p.XP)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
