package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetenv(t *testing.T) {
	t.Run("default when unset", func(t *testing.T) {
		t.Setenv("CFG_TEST_VALUE", "")
		if v := Getenv("CFG_TEST_VALUE", "fallback"); v != "fallback" {
			t.Fatalf("expected fallback, got %s\n", v)
		}
	})

	t.Run("env wins over default", func(t *testing.T) {
		t.Setenv("CFG_TEST_VALUE", "set")
		if v := Getenv("CFG_TEST_VALUE", "fallback"); v != "set" {
			t.Fatalf("expected set, got %s\n", v)
		}
	})

	t.Run("invalid int is an error", func(t *testing.T) {
		t.Setenv("CFG_TEST_INT", "three")
		if _, err := GetenvInt("CFG_TEST_INT", 1); err == nil {
			t.Fatalf("expected error for non-numeric value\n")
		}
	})

	t.Run("duration parses", func(t *testing.T) {
		t.Setenv("CFG_TEST_DURATION", "1500ms")
		d, err := GetenvDuration("CFG_TEST_DURATION", time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %s\n", err)
		}
		if d != 1500*time.Millisecond {
			t.Fatalf("expected 1.5s, got %s\n", d)
		}
	})
}

func TestGetenvList(t *testing.T) {
	def := []string{"Nairobi"}

	t.Run("trims and drops blanks", func(t *testing.T) {
		t.Setenv("CFG_TEST_LIST", " Nairobi, ,Arusha ,Kampala,")
		got := GetenvList("CFG_TEST_LIST", def)
		want := []string{"Nairobi", "Arusha", "Kampala"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v\n", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v\n", want, got)
			}
		}
	})

	t.Run("only separators falls back", func(t *testing.T) {
		t.Setenv("CFG_TEST_LIST", " , ,")
		got := GetenvList("CFG_TEST_LIST", def)
		if len(got) != 1 || got[0] != "Nairobi" {
			t.Fatalf("expected default list, got %v\n", got)
		}
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CFG_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("unable to write env file: %s\n", err)
	}
	os.Unsetenv("CFG_TEST_DOTENV")
	defer os.Unsetenv("CFG_TEST_DOTENV")

	Load(path)
	if v := os.Getenv("CFG_TEST_DOTENV"); v != "from-file" {
		t.Fatalf("expected from-file, got %s\n", v)
	}

	// a missing file must not panic
	Load(filepath.Join(t.TempDir(), "missing.env"))
}
