package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("TEK_TEST_INT", "12")
	t.Setenv("TEK_TEST_BAD_INT", "twelve")
	t.Setenv("TEK_TEST_BOOL", "on")
	t.Setenv("TEK_TEST_DUR", "45s")
	t.Setenv("TEK_TEST_DUR_SECS", "7")
	t.Setenv("TEK_TEST_STR", "  value ")

	if got := Int("TEK_TEST_INT", 1); got != 12 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("TEK_TEST_BAD_INT", 3); got != 3 {
		t.Fatalf("Int fallback: got=%d", got)
	}
	if !Bool("TEK_TEST_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if Bool("TEK_TEST_MISSING", false) {
		t.Fatalf("Bool default: expected false")
	}
	if got := Duration("TEK_TEST_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("Duration: got=%s", got)
	}
	if got := Duration("TEK_TEST_DUR_SECS", time.Second); got != 7*time.Second {
		t.Fatalf("Duration seconds: got=%s", got)
	}
	if got := String("TEK_TEST_STR", "x"); got != "value" {
		t.Fatalf("String: got=%q", got)
	}
}
