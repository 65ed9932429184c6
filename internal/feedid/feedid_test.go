package feedid

import (
	"strings"
	"testing"
)

const sampleFeedID = "0000000000026e4d30eccc3215dd8f3157d27e23acbdcfe68000000000000004"

func TestComposeDeterministic(t *testing.T) {
	first, err := ComposeEvmFeedID(sampleFeedID)
	if err != nil {
		t.Fatalf("ComposeEvmFeedID: %v", err)
	}
	second, err := ComposeEvmFeedID(strings.ToUpper(sampleFeedID))
	if err != nil {
		t.Fatalf("ComposeEvmFeedID: %v", err)
	}
	if first != second {
		t.Fatalf("composition must be case-insensitive: %s vs %s", first, second)
	}
	if len(first) != idHexLen {
		t.Fatalf("expected %d hex chars, got %d", idHexLen, len(first))
	}
}

func TestComposeVariantsDiffer(t *testing.T) {
	evm, err := ComposeEvmFeedID(sampleFeedID)
	if err != nil {
		t.Fatalf("ComposeEvmFeedID: %v", err)
	}
	tvm, err := ComposeTvmFeedID(sampleFeedID, 1)
	if err != nil {
		t.Fatalf("ComposeTvmFeedID: %v", err)
	}
	if evm == tvm {
		t.Fatal("EVM and TVM composed ids must not collide")
	}
	tvm2, err := ComposeTvmFeedID(sampleFeedID, 2)
	if err != nil {
		t.Fatalf("ComposeTvmFeedID: %v", err)
	}
	if tvm == tvm2 {
		t.Fatal("different mailer versions must compose differently")
	}
}

func TestComposeRejectsBadInput(t *testing.T) {
	if _, err := ComposeEvmFeedID("abc"); err == nil {
		t.Fatal("expected error for short feed id")
	}
	if _, err := ComposeEvmFeedID(strings.Repeat("z", idHexLen)); err == nil {
		t.Fatal("expected error for non-hex feed id")
	}
}
