package commission

import (
	"testing"
)

func TestCalcCommissionsSumsAncestors(t *testing.T) {
	schedules := []map[string]string{
		{"ETHEREUM": "1.5", "POLYGON": "0.1"},
		{"ETHEREUM": "0.5"},
		{"POLYGON": "0.2"},
	}
	got, err := CalcCommissions("ETHEREUM", schedules)
	if err != nil {
		t.Fatalf("CalcCommissions: %v", err)
	}
	if got.String() != "2" {
		t.Fatalf("expected 2, got %s", got)
	}
}

func TestCalcCommissionsMissingChainIsZero(t *testing.T) {
	got, err := CalcCommissions("GNOSIS", []map[string]string{{"ETHEREUM": "1"}})
	if err != nil {
		t.Fatalf("CalcCommissions: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestCalcCommissionsMalformedRate(t *testing.T) {
	if _, err := CalcCommissions("ETHEREUM", []map[string]string{{"ETHEREUM": "1,5"}}); err == nil {
		t.Fatal("expected error for malformed rate")
	}
}

func TestCalcCommissionDecimals(t *testing.T) {
	total, err := CalcCommissions("ETHEREUM", []map[string]string{{"ETHEREUM": "2"}})
	if err != nil {
		t.Fatalf("CalcCommissions: %v", err)
	}
	base := CalcCommissionDecimals(total, DecimalsFor("ETHEREUM"))
	if base.String() != "2000000000000000000" {
		t.Fatalf("expected 2e18 base units, got %s", base)
	}
}

func TestExcludeDecimals(t *testing.T) {
	got, err := ExcludeDecimals("1500000000000000000", 18)
	if err != nil {
		t.Fatalf("ExcludeDecimals: %v", err)
	}
	if got != "1.5" {
		t.Fatalf("expected 1.5, got %s", got)
	}
	got, err = ExcludeDecimals("7", 0)
	if err != nil {
		t.Fatalf("ExcludeDecimals: %v", err)
	}
	if got != "7" {
		t.Fatalf("expected 7, got %s", got)
	}
}

func TestIsGreaterOrEqualInclusiveBoundary(t *testing.T) {
	ok, err := IsGreaterOrEqual("2000000000000000000", "2000000000000000000")
	if err != nil {
		t.Fatalf("IsGreaterOrEqual: %v", err)
	}
	if !ok {
		t.Fatal("paying exactly the commission must be valid")
	}
	ok, err = IsGreaterOrEqual("1999999999999999999", "2000000000000000000")
	if err != nil {
		t.Fatalf("IsGreaterOrEqual: %v", err)
	}
	if ok {
		t.Fatal("underpaying by one base unit must be invalid")
	}
}

func TestDecimalsForUnknownChain(t *testing.T) {
	if got := DecimalsFor("unknown-chain"); got != 0 {
		t.Fatalf("expected 0 for unknown chain, got %d", got)
	}
}
