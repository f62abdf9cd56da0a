package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvLoaderLoadsFlagPath(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	t.Setenv("STORYDESK_TEST_VALUE", "before")

	path := filepath.Join(t.TempDir(), "custom.env")
	if err := os.WriteFile(path, []byte("STORYDESK_TEST_VALUE=after\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, "", "")
	if err := fs.Parse([]string{"--env", path}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != path {
		t.Fatalf("unexpected loaded path: %q", loaded)
	}
	if got := os.Getenv("STORYDESK_TEST_VALUE"); got != "after" {
		t.Fatalf("env file did not override value: %q", got)
	}
}

func TestEnvLoaderMissingFile(t *testing.T) {
	t.Setenv(EnvFileVar, "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(t.TempDir(), "nope.env"), "")
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := loader.Load(); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}

func TestNilEnvLoader(t *testing.T) {
	t.Parallel()

	var loader *EnvLoader
	if _, err := loader.Load(); err == nil {
		t.Fatalf("expected error for nil loader")
	}
}
