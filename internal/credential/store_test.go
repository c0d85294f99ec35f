package credential

import (
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() on empty store error = %v", err)
	}
	if got != "" {
		t.Fatalf("Load() on empty store = %q, want empty", got)
	}

	if err := s.Save("tok-123"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err = s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != "tok-123" {
		t.Fatalf("Load() = %q, want %q", got, "tok-123")
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	got, _ = s.Load()
	if got != "" {
		t.Fatalf("Load() after Clear() = %q, want empty", got)
	}
	// Clear on an already-empty store must not fail.
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
}

func TestCookieStoreExpiry(t *testing.T) {
	s := NewCookieStore(t.TempDir(), 12*time.Hour)
	base := time.Now()
	s.now = func() time.Time { return base }

	if err := s.Save("tok-abc"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != "tok-abc" {
		t.Fatalf("Load() = %q, want %q", got, "tok-abc")
	}

	s.now = func() time.Time { return base.Add(11 * time.Hour) }
	if got, _ := s.Load(); got != "tok-abc" {
		t.Fatalf("Load() before expiry = %q, want token", got)
	}

	s.now = func() time.Time { return base.Add(13 * time.Hour) }
	if got, _ := s.Load(); got != "" {
		t.Fatalf("Load() after expiry = %q, want empty", got)
	}
}

func TestCookieStoreIgnoresCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	s := NewCookieStore(dir, time.Hour)
	if err := s.Save("tok"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	other := NewFileStore(dir)
	// Overwrite the cookie file with a different JSON shape.
	s2 := NewCookieStore(dir, time.Hour)
	if err := other.Save("whatever"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s2.path = other.path
	if got, err := s2.Load(); err != nil || got != "" {
		t.Fatalf("Load() of wrong-shape record = (%q, %v), want empty", got, err)
	}
}
