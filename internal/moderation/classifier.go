package moderation

import (
	"regexp"
	"strings"
)

// tokenPattern splits text into word tokens. The ranges keep Latin letters
// plus accented and most non-ASCII script characters together, so emoji and
// punctuation act as separators.
var tokenPattern = regexp.MustCompile(`[^a-zA-Z\x{00C0}-\x{1FFF}\x{2800}-\x{FFFD}]+`)

// letterRunPattern extracts plain lowercase runs for the denylist scan, so
// "f.u.c.k" collapses into separate runs but "badword!" still matches.
var letterRunPattern = regexp.MustCompile(`[a-z]+`)

var goodWordsSet = toSet(goodWords)

// Ruleset is an immutable snapshot of the mutable moderation inputs. The
// classifier itself owns the static word lists. LiteralBans and
// BannedAddresses are keyed lowercase; lookups normalize before matching.
type Ruleset struct {
	LiteralBans     map[string]struct{}
	PredefinedTexts map[string]struct{}
	BannedAddresses map[string]struct{}
}

// Result is the classification outcome. Banned posts stay stored but are
// hidden from public reads unless later approved.
type Result struct {
	Banned       bool
	IsAutobanned bool
	IsPredefined bool
}

// Classify runs the moderation stages over decoded post text, in order:
// literal-ban exact match, predefined text match, benign-token heuristic,
// then sender denylist and bad-word scan. It is a pure function of its
// inputs.
func Classify(text string, sender string, rules Ruleset) Result {
	trimmed := strings.TrimSpace(text)

	if _, ok := rules.LiteralBans[strings.ToLower(trimmed)]; ok {
		return Result{Banned: true, IsAutobanned: true}
	}

	predefined := trimmed == ""
	if !predefined {
		_, predefined = rules.PredefinedTexts[trimmed]
	}
	if !predefined {
		predefined = IsGoodPost(trimmed)
	}
	if predefined {
		return Result{IsPredefined: true}
	}

	if _, banned := rules.BannedAddresses[strings.ToLower(sender)]; banned || ShouldBeBanned(trimmed) {
		return Result{Banned: true, IsAutobanned: true}
	}
	return Result{}
}

// IsGoodPost reports whether every token of the text is in the benign
// allow list. An all-benign post is boilerplate, not user content.
func IsGoodPost(text string) bool {
	for _, word := range tokenize(text) {
		if _, ok := goodWordsSet[word]; !ok {
			return false
		}
	}
	return true
}

// ShouldBeBanned scans lowercase letter runs against the denylist.
func ShouldBeBanned(text string) bool {
	lower := strings.ToLower(text)
	for _, run := range letterRunPattern.FindAllString(lower, -1) {
		if _, ok := badWordsSet[run]; ok {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	parts := tokenPattern.Split(strings.ToLower(text), -1)
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}
