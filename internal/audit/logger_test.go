package audit

import (
	"path/filepath"
	"testing"
)

func TestLogAndReadAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "nested", "audit.log"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := l.Log(Entry{Method: "seed", Status: "success"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := l.Log(Entry{Method: "export_xpriv", KeyId: "abcd", Status: "failure", FailureReason: "wrong key"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Method != "seed" || entries[0].Status != "success" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].KeyId != "abcd" || entries[1].FailureReason != "wrong key" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestReadAllOnMissingFileReturnsEmpty(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "never-written.log"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entries, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
