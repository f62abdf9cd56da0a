package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"horse.fit/storydesk/internal/config"
)

func TestRunUsageExitCodes(t *testing.T) {
	t.Parallel()

	if got := Run(nil); got != 2 {
		t.Fatalf("unexpected exit code without args: %d", got)
	}
	if got := Run([]string{"help"}); got != 0 {
		t.Fatalf("unexpected exit code for help: %d", got)
	}
	if got := Run([]string{"bogus"}); got != 2 {
		t.Fatalf("unexpected exit code for unknown command: %d", got)
	}
	if got := Run([]string{"cluster"}); got != 2 {
		t.Fatalf("unexpected exit code for cluster without --file: %d", got)
	}
}

func TestCollectJSONFilesRecursive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a.json"), `{"k":"v"}`)
	mustWriteFile(t, filepath.Join(root, "b.txt"), `x`)
	mustWriteFile(t, filepath.Join(root, ".hidden.json"), `{}`)
	mustWriteFile(t, filepath.Join(root, "nested", "c.json"), `{"k":"v2"}`)

	files, err := collectJSONFiles(root, true)
	if err != nil {
		t.Fatalf("collectJSONFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 json files, got %d (%v)", len(files), files)
	}
}

func TestCollectJSONFilesNonRecursive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a.json"), `{"k":"v"}`)
	mustWriteFile(t, filepath.Join(root, "nested", "c.json"), `{"k":"v2"}`)

	files, err := collectJSONFiles(root, false)
	if err != nil {
		t.Fatalf("collectJSONFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 json file, got %d (%v)", len(files), files)
	}
}

func TestValidateFilesCountsArticles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	good := filepath.Join(root, "good.json")
	array := filepath.Join(root, "array.json")
	bad := filepath.Join(root, "bad.json")
	broken := filepath.Join(root, "broken.json")
	mustWriteFile(t, good, `{"articles":[{"title":"A","url":"https://a.test/1"},{"title":"B","url":"https://b.test/1"}]}`)
	mustWriteFile(t, array, `[{"title":"C","url":"https://c.test/1"}]`)
	mustWriteFile(t, bad, `{"articles":[{"title":"","url":"https://a.test/2"}]}`)
	mustWriteFile(t, broken, `{"articles":`)

	result := validateFiles([]string{good, array, bad, broken})
	if result.Scanned != 4 || result.Valid != 2 || result.Invalid != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Articles != 3 {
		t.Fatalf("unexpected article count: %d", result.Articles)
	}
}

func TestClusterPayloadThresholdPrecedence(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"threshold":0.5,"articles":[
		{"title":"City Council Approves New Budget","url":"https://theguardian.com/budget","source":"guardian"},
		{"title":"Council approves city budget plan","url":"https://localnews.test/budget","source":"gdelt"}
	]}`)

	groups, used, err := clusterPayload(raw, 0)
	if err != nil {
		t.Fatalf("clusterPayload failed: %v", err)
	}
	if used != 0.5 {
		t.Fatalf("expected payload threshold, got %f", used)
	}
	if len(groups) == 0 {
		t.Fatalf("expected groups")
	}

	_, used, err = clusterPayload(raw, 0.3)
	if err != nil {
		t.Fatalf("clusterPayload failed: %v", err)
	}
	if used != 0.3 {
		t.Fatalf("expected override threshold, got %f", used)
	}

	_, used, err = clusterPayload([]byte(`[]`), 0)
	if err != nil {
		t.Fatalf("clusterPayload failed on empty array: %v", err)
	}
	if used != 0.20 {
		t.Fatalf("expected default threshold, got %f", used)
	}
}

func TestBuildProvidersFollowsConfig(t *testing.T) {
	t.Parallel()

	registry, sources := buildProviders(&config.Config{GuardianAPIKey: "key", GDELTEnabled: false}, nil)
	names := registry.Names()
	if len(names) != 1 || names[0] != "Guardian" {
		t.Fatalf("unexpected providers: %v", names)
	}
	if len(sources) != 3 {
		t.Fatalf("expected every provider listed, got %d", len(sources))
	}
	for _, src := range sources {
		if src.Name != "Guardian" && (src.Enabled || src.Reason == "") {
			t.Fatalf("disabled provider without reason: %+v", src)
		}
	}
}

func TestWriteTableAlignsWideRunes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writeTable(&buf, [][]string{
		{"SOURCE", "TITLE"},
		{"東京", "Tokyo"},
		{"gdelt", "Wire"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if !strings.HasPrefix(lines[1], "東京    Tokyo") {
		t.Fatalf("wide runes not padded by display width: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "gdelt   Wire") {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}

func TestTruncateForTable(t *testing.T) {
	t.Parallel()

	if got := truncateForTable("  short  ", 10); got != "short" {
		t.Fatalf("unexpected value: %q", got)
	}
	if got := truncateForTable("abcdefghijkl", 8); got != "abcde..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
