package pkg

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "psh" {
		t.Errorf("Expected Name to be %q, got %q", "psh", Name)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain ardnew")
	}
}

func TestPaths(t *testing.T) {
	if got := ConfigPath("config.yaml"); filepath.Base(got) != "config.yaml" ||
		filepath.Dir(got) != ConfigDir() {
		t.Errorf("ConfigPath: unexpected %q", got)
	}

	if got := CachePath("history.utf8"); filepath.Dir(got) != CacheDir() {
		t.Errorf("CachePath: unexpected %q", got)
	}

	if filepath.Base(ConfigDir()) != Prefix() {
		t.Errorf("ConfigDir %q does not end in %q", ConfigDir(), Prefix())
	}
}

func TestUserDirFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	fail := func() (string, error) { return "", os.ErrNotExist }

	got := userDir(fail, ".cache")
	if !strings.HasSuffix(got, filepath.Join(".cache", Prefix())) {
		t.Errorf("userDir fallback: got %q", got)
	}
}
