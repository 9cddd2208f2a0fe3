package refcache

import (
	"strings"
	"unicode"
)

// legacyStageNames covers legacy numeric stage ids that are not reliably
// present in the live stage table. These are the early and terminal workflow
// states from before the stage table existed; rows still reference them.
var legacyStageNames = map[string]string{
	"1":   "New",
	"5":   "Attempted Contact",
	"10":  "Meeting Scheduled",
	"40":  "In Treatment",
	"100": "Success",
	"110": "Not Relevant",
	"120": "Refused",
}

// legacyStageColours mirrors legacyStageNames for the ids that have a fixed
// display colour.
var legacyStageColours = map[string]string{
	"1":   "#9e9e9e",
	"100": "#4caf50",
	"110": "#bdbdbd",
	"120": "#f44336",
}

// StageNameSuccess is the canonical label of the signed/won workflow state.
// Display formatting prefixes lead numbers at this state.
const StageNameSuccess = "Success"

// stageSynonymGroups declares which humanly distinct stage labels name the
// same business state. The two schemas label identical states with different
// strings and there is no shared enum, so equivalence is by membership.
var stageSynonymGroups = [][]string{
	{"success", "client signed agreement", "deal closed", "won"},
	{"new", "incoming", "lead created"},
	{"in treatment", "in progress", "handling"},
	{"not relevant", "junk", "disqualified"},
	{"refused", "lost", "closed lost"},
	{"meeting scheduled", "appointment set"},
}

// stageSynonymIndex maps each normalized synonym to its group index.
var stageSynonymIndex = func() map[string]int {
	index := make(map[string]int)
	for i, group := range stageSynonymGroups {
		for _, label := range group {
			index[normalizeStage(label)] = i
		}
	}
	return index
}()

// StagesEquivalent reports whether two stage labels name the same business
// state: direct equality after normalization, or common membership in a
// synonym group. Unmapped labels compare unequal rather than erroring.
func StagesEquivalent(a, b string) bool {
	na, nb := normalizeStage(a), normalizeStage(b)
	if na == "" || nb == "" {
		return na == nb && na != ""
	}
	if na == nb {
		return true
	}
	ga, okA := stageSynonymIndex[na]
	gb, okB := stageSynonymIndex[nb]
	return okA && okB && ga == gb
}

// normalizeStage lowercases and strips whitespace and punctuation so that
// "Client-Signed Agreement" and "client signed agreement" collapse to the
// same key.
func normalizeStage(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// humanizeStageID is the last-resort stage name: underscores become spaces
// and each word is title-cased.
func humanizeStageID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == ' '
	})
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
