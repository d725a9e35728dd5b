package identity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetOrCreateIsStable(t *testing.T) {
	dir := t.TempDir()
	p := NewProvisioner(dir, nil)

	first := p.GetOrCreate()
	if first == "" {
		t.Fatal("expected a non-empty tenant id")
	}
	if !strings.HasPrefix(first, "t") {
		t.Fatalf("unexpected id format: %q", first)
	}

	second := p.GetOrCreate()
	if second != first {
		t.Fatalf("tenant id changed between calls: %q vs %q", first, second)
	}

	// A new provisioner over the same directory sees the persisted value.
	other := NewProvisioner(dir, nil)
	if got := other.GetOrCreate(); got != first {
		t.Fatalf("persisted id not honored: %q vs %q", got, first)
	}
}

func TestGetOrCreateReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, tenantFileName), []byte("t123xabc\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p := NewProvisioner(dir, nil)
	if got := p.GetOrCreate(); got != "t123xabc" {
		t.Fatalf("expected seeded id, got %q", got)
	}
}

func TestGetOrCreateDegradesWithoutStorage(t *testing.T) {
	// A path that cannot be created as a directory.
	blocker := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("create blocker: %v", err)
	}

	p := NewProvisioner(filepath.Join(blocker, "nested"), nil)

	first := p.GetOrCreate()
	second := p.GetOrCreate()
	if first == "" || second == "" {
		t.Fatal("ids must still be produced without storage")
	}
	if first == second {
		t.Fatal("without storage each call should regenerate")
	}
}
