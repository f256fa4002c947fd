package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.PNG", "b.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := collectImages(dir)
	if err != nil {
		t.Fatalf("collectImages() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("collectImages() = %v, want 2 images", files)
	}

	single, err := collectImages(filepath.Join(dir, "notes.txt"))
	if err != nil || len(single) != 1 {
		t.Errorf("an explicit file should be returned as is, got %v, %v", single, err)
	}

	if _, err := collectImages(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func TestMediaTypeFor(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":  "image/jpeg",
		"photo.JPEG": "image/jpeg",
		"photo.png":  "image/png",
		"photo":      "",
	}
	for path, want := range tests {
		if got := mediaTypeFor(path); got != want {
			t.Errorf("mediaTypeFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestEncodeCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shirt.png")
	if err := os.WriteFile(path, []byte("orig-bytes-B"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("data uri to stdout", func(t *testing.T) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"encode", path, "--data-uri"})
		t.Cleanup(func() { dataURIFlag = false })

		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if got, want := out.String(), "data:image/png;base64,b3JpZy1ieXRlcy1C\n"; got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})

	t.Run("out dir", func(t *testing.T) {
		outDir := filepath.Join(dir, "encoded")
		rootCmd.SetOut(&bytes.Buffer{})
		rootCmd.SetArgs([]string{"encode", dir, "--out-dir", outDir})
		t.Cleanup(func() { outDirFlag = "" })

		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		data, err := os.ReadFile(filepath.Join(outDir, "shirt.txt"))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != "b3JpZy1ieXRlcy1C" {
			t.Errorf("saved %q", data)
		}
	})
}
