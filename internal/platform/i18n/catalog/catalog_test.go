package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("fr-FR") {
		t.Fatal("expected locale fr-FR")
	}
	if got := len(bundle.Messages("en-US")); got == 0 {
		t.Fatal("expected en-US messages")
	}
}

func TestLocalesAreKeyAligned(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	base := bundle.Messages(BaseLocale)
	for _, locale := range bundle.Locales() {
		messages := bundle.Messages(locale)
		if len(messages) != len(base) {
			t.Fatalf("locale %s has %d messages, base has %d", locale, len(messages), len(base))
		}
		for key := range base {
			if _, ok := messages[key]; !ok {
				t.Fatalf("locale %s is missing key %q", locale, key)
			}
		}
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	bundle := mustLoad(t, map[string]string{
		"locales/en-US.yaml": "locale: \"en-US\"\nmessages:\n  \"HELLO\": \"hello\"\n  \"ONLY_BASE\": \"base\"\n",
		"locales/fr-FR.yaml": "locale: \"fr-FR\"\nmessages:\n  \"HELLO\": \"bonjour\"\n",
	})

	if got, ok := bundle.Message("fr-FR", "HELLO"); !ok || got != "bonjour" {
		t.Fatalf("expected bonjour, got %q (%v)", got, ok)
	}
	if got, ok := bundle.Message("fr-FR", "ONLY_BASE"); !ok || got != "base" {
		t.Fatalf("expected base fallback, got %q (%v)", got, ok)
	}
	if _, ok := bundle.Message("fr-FR", "MISSING"); ok {
		t.Fatal("expected missing key lookup to fail")
	}
	if _, ok := bundle.Message("fr-FR", ""); ok {
		t.Fatal("expected blank key lookup to fail")
	}
}

func TestLoadFromFSRejectsLocaleMismatch(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US.yaml"), "locale: \"en-US\"\nmessages:\n  \"K\": \"v\"\n")
	mustWriteFile(t, filepath.Join(tempDir, "locales/fr-FR.yaml"), "locale: \"pt-BR\"\nmessages:\n  \"K\": \"v\"\n")

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/fr-FR.yaml"), "locale: \"fr-FR\"\nmessages:\n  \"K\": \"v\"\n")

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestParseCatalogFileErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing locale", data: "messages:\n  \"K\": \"v\"\n"},
		{name: "missing messages", data: "locale: \"en-US\"\n"},
		{name: "entry before messages", data: "locale: \"en-US\"\n  \"K\": \"v\"\n"},
		{name: "unquoted key", data: "locale: \"en-US\"\nmessages:\n  K: \"v\"\n"},
		{name: "missing separator", data: "locale: \"en-US\"\nmessages:\n  \"K\" \"v\"\n"},
		{name: "unterminated key", data: "locale: \"en-US\"\nmessages:\n  \"K: \"v\"\n"},
		{name: "duplicate key", data: "locale: \"en-US\"\nmessages:\n  \"K\": \"a\"\n  \"K\": \"b\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseCatalogFile([]byte(tt.data)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func mustLoad(t *testing.T, files map[string]string) *Bundle {
	t.Helper()
	tempDir := t.TempDir()
	for path, data := range files {
		mustWriteFile(t, filepath.Join(tempDir, path), data)
	}
	bundle, err := LoadFromFS(os.DirFS(tempDir))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return bundle
}

func mustWriteFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
