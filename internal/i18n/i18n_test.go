package i18n

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewTranslations(t *testing.T) {
	t.Run("Should load the embedded messages", func(t *testing.T) {
		// act
		trans, err := NewTranslations("en", "")

		// assert
		if err != nil {
			t.Fatalf("NewTranslations() should not fail, got: %v", err)
		}
		if got := trans.GetMessage("results_empty", 0, nil); got != "No grading results found." {
			t.Errorf("GetMessage() = %q", got)
		}
	})

	t.Run("Should fail with empty language", func(t *testing.T) {
		// act
		trans, err := NewTranslations("", "")

		// assert
		if err == nil {
			t.Error("NewTranslations() should fail with an empty language")
		}
		if trans != nil {
			t.Error("NewTranslations() should return nil when it fails")
		}
	})

	t.Run("Should fail with invalid TOML in the extra directory", func(t *testing.T) {
		// arrange
		tmpDir := t.TempDir()
		createTestFile(t, tmpDir, "active.es.toml", "[InvalidSection\nthis is not valid TOML")

		// act
		trans, err := NewTranslations("es", tmpDir)

		// assert
		if err == nil || !strings.HasPrefix(err.Error(), "error loading locale file") {
			t.Errorf("expected a locale loading error, got: %v", err)
		}
		if trans != nil {
			t.Error("NewTranslations() should return nil when it fails")
		}
	})

	t.Run("Should let extra files add messages", func(t *testing.T) {
		// arrange
		tmpDir := t.TempDir()
		createTestFile(t, tmpDir, "active.es.toml", `
		[Welcome]
		one = "Bienvenido"
		other = "Bienvenidos"`)

		// act
		trans, err := NewTranslations("es", tmpDir)
		if err != nil {
			t.Fatal("test setup failed:", err)
		}

		// assert
		if got := trans.GetMessage("Welcome", 1, nil); got != "Bienvenido" {
			t.Errorf("GetMessage() singular = %q", got)
		}
		if got := trans.GetMessage("Welcome", 2, nil); got != "Bienvenidos" {
			t.Errorf("GetMessage() plural = %q", got)
		}
	})
}

func TestSetLanguage(t *testing.T) {
	trans, err := NewTranslations("en", "")
	if err != nil {
		t.Fatal("test setup failed:", err)
	}

	t.Run("Should change to a bundled language", func(t *testing.T) {
		if err := trans.SetLanguage("es"); err != nil {
			t.Fatalf("SetLanguage() should not fail, got: %v", err)
		}
		if got := trans.GetMessage("results_empty", 0, nil); got != "No se encontraron resultados." {
			t.Errorf("GetMessage() = %q", got)
		}
	})

	t.Run("Should fail with unsupported language", func(t *testing.T) {
		if err := trans.SetLanguage("fr"); err == nil {
			t.Error("SetLanguage() should fail with an unsupported language")
		}
	})
}

func TestGetMessage(t *testing.T) {
	trans, err := NewTranslations("en", "")
	if err != nil {
		t.Fatal("test setup failed:", err)
	}

	t.Run("Should handle templates correctly", func(t *testing.T) {
		got := trans.GetMessage("assignment_created", 0, map[string]interface{}{"Name": "strategy"})
		if got != "Assignment strategy created." {
			t.Errorf("GetMessage() = %q", got)
		}
	})

	t.Run("Should handle missing messages", func(t *testing.T) {
		got := trans.GetMessage("NonExistent", 1, nil)
		if got != "Translation missing: NonExistent" {
			t.Errorf("GetMessage() = %q", got)
		}
	})
}

func createTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("could not create test file: %v", err)
	}
}
