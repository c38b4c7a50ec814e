// Package render turns PlantUML source into PNG bytes, either with a local
// plantuml.jar or through a PlantUML server.
package render

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyOutput is returned when a renderer produced no image data.
	ErrEmptyOutput = errors.New("renderer produced no output")
	// ErrNoImage is returned when the output cannot be decoded as an image.
	ErrNoImage = errors.New("output is not an image")
)

// Renderer produces a PNG for a PlantUML source document.
type Renderer interface {
	RenderPNG(ctx context.Context, src []byte) ([]byte, error)
}

// HTTPStatusError reports a non-200 answer from a PlantUML server.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("plantuml server %s: %s", e.URL, e.Status)
}

// ExitError wraps a failed plantuml process together with its stderr.
type ExitError struct {
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("plantuml: %v", e.Err)
	}
	return fmt.Sprintf("plantuml: %v: %s", e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// identifier is implemented by renderers whose output can be cached on disk.
type identifier interface {
	ID() string
}
