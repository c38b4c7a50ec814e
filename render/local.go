package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Local renders with a plantuml.jar through the java executable.
type Local struct {
	Java string
	Jar  string
	// Format is the plantuml output type, "svg" (default) or "png".
	// SVG output is rasterized at Scale.
	Format string
	Scale  float64
}

func NewLocal(java, jar string) *Local {
	if java == "" {
		java = "java"
	}
	return &Local{Java: java, Jar: jar, Format: "svg", Scale: DefaultScale}
}

func (l *Local) ID() string {
	return fmt.Sprintf("local:%s:%s:%g", l.Jar, l.format(), l.Scale)
}

func (l *Local) format() string {
	if l.Format == "" {
		return "svg"
	}
	return strings.ToLower(l.Format)
}

// RenderPNG pipes src through plantuml. A non-zero exit with output is
// accepted, plantuml reports syntax errors as a rendered diagram.
func (l *Local) RenderPNG(ctx context.Context, src []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, l.Java, "-jar", l.Jar, "-pipe", "-charset", "UTF-8", "-t"+l.format())
	applyHiddenWindow(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(src)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stdout.Len() == 0 {
			return nil, &ExitError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
		}
	}

	out := stdout.Bytes()
	if len(out) == 0 {
		return nil, ErrEmptyOutput
	}
	if isPNG(out) {
		return out, nil
	}
	if !isSVG(out) {
		return nil, ErrNoImage
	}

	png, err := RasterizeSVG(out, l.Scale)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	return png, nil
}
