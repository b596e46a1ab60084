package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type FileSuite struct {
	StorageSuite
}

func (s *FileSuite) SetupTest() {
	store, err := NewFile(s.T().TempDir())
	s.Require().NoError(err)
	s.store = store
}

func TestFileSuite(t *testing.T) {
	suite.Run(t, new(FileSuite))
}

func TestFileKeySanitization(t *testing.T) {
	root := t.TempDir()
	f, err := NewFile(root)
	if err != nil {
		t.Fatal(err)
	}

	// Slashes in the canonical key must not escape the root directory.
	if err := f.Set(Key("acs5", 2017), []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].IsDir() {
		t.Fatalf("expected a single entry file directly under root, got %v", entries)
	}
}

func TestFileCorruptEntry(t *testing.T) {
	root := t.TempDir()
	f, err := NewFile(root)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(root)
	if err := os.WriteFile(filepath.Join(root, entries[0].Name()), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := f.Get("k"); err == nil {
		t.Fatal("Get() returned no error for a corrupt entry")
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	root := t.TempDir()
	f, err := NewFile(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Set(Key("acs5", 2017), []byte("persisted"), 0); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewFile(root)
	if err != nil {
		t.Fatal(err)
	}
	val, err := reopened.Get(Key("acs5", 2017))
	if err != nil {
		t.Fatal(err)
	}
	if string(val) != "persisted" {
		t.Errorf("value after reopen = %q, want persisted", val)
	}
}
