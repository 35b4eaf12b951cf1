package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain name", "widget.png", "widget.png", false},
		{"traversal", "../../etc/passwd", "passwd", false},
		{"absolute path", "/var/tmp/pic.jpg", "pic.jpg", false},
		{"windows path", `C:\uploads\pic.jpg`, "pic.jpg", false},
		{"empty", "", "", true},
		{"dot only", ".", "", true},
		{"slashes only", "///", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizeFileName(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("sanitize: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "/images")

	publicPath, err := store.Save("widget.png", strings.NewReader("first"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if publicPath != "/images/widget.png" {
		t.Errorf("expected /images/widget.png, got %q", publicPath)
	}

	// Same name again overwrites in place.
	if _, err := store.Save("widget.png", strings.NewReader("second")); err != nil {
		t.Fatalf("second save: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "widget.png"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "second" {
		t.Errorf("expected overwrite, got %q", content)
	}
}

func TestStoreSave_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "/images")

	publicPath, err := store.Save("../escape.png", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if publicPath != "/images/escape.png" {
		t.Errorf("expected sanitized public path, got %q", publicPath)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.png")); err != nil {
		t.Errorf("expected file inside the store dir: %v", err)
	}
}

func TestStoreRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "/images")

	if _, err := store.Save("gone.png", strings.NewReader("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Remove("/images/gone.png"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.png")); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}

	// Removing a missing file is not an error.
	if err := store.Remove("/images/never-there.png"); err != nil {
		t.Errorf("remove missing: %v", err)
	}
}
