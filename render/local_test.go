package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeJava writes a shell script standing in for the java executable.
func fakeJava(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "java")
	script := "#!/bin/sh\ncat > /dev/null\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocal_RasterizesSVG(t *testing.T) {
	java := fakeJava(t, "cat <<'SVG'\n"+halfBlackSVG+"\nSVG")
	l := NewLocal(java, "plantuml.jar")
	l.Scale = 3

	data, err := l.RenderPNG(context.Background(), []byte("@startuml\n@enduml"))
	if err != nil {
		t.Fatalf("RenderPNG failed: %v", err)
	}
	img, err := decodePNG(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 30 {
		t.Errorf("Expected width 30 at scale 3, got %d", img.Bounds().Dx())
	}
}

func TestLocal_ExitError(t *testing.T) {
	java := fakeJava(t, "echo broken >&2\nexit 3")

	_, err := NewLocal(java, "plantuml.jar").RenderPNG(context.Background(), []byte("x"))
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Expected ExitError, got %v", err)
	}
	if exitErr.Stderr != "broken" {
		t.Errorf("Expected stderr in the error, got %q", exitErr.Stderr)
	}
}

func TestLocal_ErrorDiagramIsKept(t *testing.T) {
	// plantuml exits non-zero for syntax errors but still draws them
	java := fakeJava(t, "cat <<'SVG'\n"+halfBlackSVG+"\nSVG\nexit 200")

	if _, err := NewLocal(java, "plantuml.jar").RenderPNG(context.Background(), []byte("x")); err != nil {
		t.Errorf("Expected the error diagram to be used, got %v", err)
	}
}

func TestLocal_NotAnImage(t *testing.T) {
	java := fakeJava(t, "echo hello")

	_, err := NewLocal(java, "plantuml.jar").RenderPNG(context.Background(), []byte("x"))
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
}

func TestLocal_EmptyOutput(t *testing.T) {
	java := fakeJava(t, "true")

	_, err := NewLocal(java, "plantuml.jar").RenderPNG(context.Background(), []byte("x"))
	if !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("Expected ErrEmptyOutput, got %v", err)
	}
}
