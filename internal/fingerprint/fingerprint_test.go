package fingerprint

import (
	"regexp"
	"testing"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestCompute_Deterministic(t *testing.T) {
	t.Parallel()
	a, err := Compute("We installed solar panels", nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !hexRe.MatchString(a) {
		t.Fatalf("digest %q is not 64 lowercase hex chars", a)
	}
	b, _ := Compute("We installed solar panels", nil)
	if a != b {
		t.Fatalf("same input must yield same digest: %s != %s", a, b)
	}
}

func TestCompute_TextSensitivity(t *testing.T) {
	t.Parallel()
	a, _ := Compute("reduced packaging", nil)
	b, _ := Compute("reduced packaging.", nil)
	if a == b {
		t.Fatalf("one-byte text change must change digest")
	}
}

func TestCompute_FileSensitivity(t *testing.T) {
	t.Parallel()
	none, _ := Compute("claim", nil)
	f1, _ := Compute("claim", []byte{0x01, 0x02})
	f2, _ := Compute("claim", []byte{0x01, 0x03})
	if none == f1 {
		t.Fatalf("attaching a file must change digest")
	}
	if f1 == f2 {
		t.Fatalf("one-byte file change must change digest")
	}
	again, _ := Compute("claim", []byte{0x01, 0x02})
	if f1 != again {
		t.Fatalf("same text+file must yield same digest")
	}
}

func TestCompute_TrimsText(t *testing.T) {
	t.Parallel()
	a, _ := Compute("claim", nil)
	b, _ := Compute("  claim \n", nil)
	if a != b {
		t.Fatalf("surrounding whitespace must not change digest")
	}
}

func TestCompute_EmptyText(t *testing.T) {
	t.Parallel()
	if _, err := Compute("", nil); err == nil {
		t.Fatalf("empty text must be rejected")
	}
	if _, err := Compute("   ", []byte("file")); err == nil {
		t.Fatalf("whitespace-only text must be rejected even with a file")
	}
}
