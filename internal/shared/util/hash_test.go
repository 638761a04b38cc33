package util

import "testing"

func TestHashKey(t *testing.T) {
	id := "couple-12345"
	got := HashKey(id)
	if got != HashKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if got == HashKey("couple-12346") {
		t.Fatalf("expected distinct hashes for distinct ids")
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}
