package content

import (
	"reflect"
	"testing"
)

func TestExtractHashtags(t *testing.T) {
	got := ExtractHashtags("launch day! #Venom #launch #venom #day_1")
	want := []string{"venom", "launch", "day_1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestExtractHashtagsNone(t *testing.T) {
	if got := ExtractHashtags("no tags here # not-a-tag"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
