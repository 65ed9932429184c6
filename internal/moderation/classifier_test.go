package moderation

import (
	"testing"
)

func testRules() Ruleset {
	return Ruleset{
		LiteralBans: map[string]struct{}{"gm": {}},
		PredefinedTexts: map[string]struct{}{
			"Claim your test tokens": {},
		},
		BannedAddresses: map[string]struct{}{
			"0:badf00d": {},
		},
	}
}

func TestClassifyLiteralBanBeatsGoodWords(t *testing.T) {
	// "gm" is in the allow list, the exact-match ban must still win.
	res := Classify("  GM ", "0:sender", testRules())
	if !res.Banned || !res.IsAutobanned {
		t.Fatalf("expected banned result, got %+v", res)
	}
	if res.IsPredefined {
		t.Fatalf("banned post must not be predefined: %+v", res)
	}
}

func TestClassifyEmptyTextIsPredefined(t *testing.T) {
	res := Classify("   ", "0:sender", testRules())
	if !res.IsPredefined || res.Banned {
		t.Fatalf("expected predefined result, got %+v", res)
	}
}

func TestClassifyPredefinedTextMatch(t *testing.T) {
	res := Classify("Claim your test tokens", "0:sender", testRules())
	if !res.IsPredefined {
		t.Fatalf("expected predefined result, got %+v", res)
	}
}

func TestClassifyAllGoodWordsIsPredefined(t *testing.T) {
	res := Classify("hello everybody, great project!", "0:sender", testRules())
	if !res.IsPredefined {
		t.Fatalf("expected predefined result, got %+v", res)
	}
}

func TestClassifyRegularPost(t *testing.T) {
	res := Classify("shipping the largest validator upgrade next week", "0:sender", testRules())
	if res.Banned || res.IsAutobanned || res.IsPredefined {
		t.Fatalf("expected clean result, got %+v", res)
	}
}

func TestClassifyBannedSender(t *testing.T) {
	res := Classify("shipping the largest validator upgrade next week", "0:badf00d", testRules())
	if !res.Banned || !res.IsAutobanned {
		t.Fatalf("expected banned result, got %+v", res)
	}
}

func TestClassifyBannedSenderMixedCase(t *testing.T) {
	res := Classify("shipping the largest validator upgrade next week", "0:BADF00D", testRules())
	if !res.Banned || !res.IsAutobanned {
		t.Fatalf("expected checksummed sender to match lowercase ban, got %+v", res)
	}
}

func TestClassifyBadWord(t *testing.T) {
	res := Classify("totally legit giveaway, just share your seedphrase", "0:sender", testRules())
	if !res.Banned || !res.IsAutobanned {
		t.Fatalf("expected banned result, got %+v", res)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	rules := testRules()
	first := Classify("hello everybody", "0:sender", rules)
	for i := 0; i < 10; i++ {
		if got := Classify("hello everybody", "0:sender", rules); got != first {
			t.Fatalf("classification drifted: %+v vs %+v", got, first)
		}
	}
}

func TestShouldBeBannedScansLetterRuns(t *testing.T) {
	if !ShouldBeBanned("SeEdPhRaSe!!1") {
		t.Fatal("expected denylist hit across case and punctuation")
	}
	if ShouldBeBanned("assessment of class performance") {
		t.Fatal("whole runs only, substrings must not match")
	}
}

func TestIsGoodPostTokenizer(t *testing.T) {
	// Emoji and digits separate tokens, so only the words themselves count.
	if !IsGoodPost("hello 🚀🚀 everybody 123") {
		t.Fatal("expected all-benign tokens to pass")
	}
	if IsGoodPost("hello zzyzzx") {
		t.Fatal("unknown token must fail the heuristic")
	}
}
