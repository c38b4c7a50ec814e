package render

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
)

// Mode chooses between the renderers.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeLocal  Mode = "local"
	ModeServer Mode = "server"
)

const (
	javaPathKey  = "umlview:javaPath"
	jarPathKey   = "umlview:jarPath"
	serverURLKey = "umlview:serverURL"
)

// JarEnv names an environment variable holding the plantuml.jar path.
const JarEnv = "PLANTUML_JAR"

var ErrNoJava = errors.New("java executable not found")
var ErrNoJar = errors.New("plantuml.jar not found")

// Options configures Select.
type Options struct {
	Mode      Mode
	Java      string
	Jar       string
	ServerURL string
	Format    string
	Scale     float64
}

// ParseMode accepts the names used on the command line.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeLocal, ModeServer:
		return m, nil
	default:
		return "", fmt.Errorf("unknown renderer %q (want auto, local or server)", s)
	}
}

// Select picks the local renderer when java and plantuml.jar are both
// available and falls back to the server otherwise.
func Select(o Options) (Renderer, error) {
	mode, err := ParseMode(string(o.Mode))
	if err != nil {
		return nil, err
	}
	if mode == ModeServer {
		return NewServer(o.ServerURL), nil
	}

	local, err := o.local()
	if err == nil {
		return local, nil
	}
	if mode == ModeLocal {
		return nil, err
	}
	return NewServer(o.ServerURL), nil
}

func (o Options) local() (*Local, error) {
	java := o.Java
	if java == "" {
		java = "java"
	}
	javaPath, err := exec.LookPath(java)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJava, err)
	}

	jar, ok := FindJar(o.Jar)
	if !ok {
		return nil, ErrNoJar
	}

	l := NewLocal(javaPath, jar)
	if o.Format != "" {
		l.Format = o.Format
	}
	if o.Scale > 0 {
		l.Scale = o.Scale
	}
	return l, nil
}

// FindJar looks for plantuml.jar at explicit, then $PLANTUML_JAR, then the
// user config directory, next to the executable and the usual package
// locations.
func FindJar(explicit string) (string, bool) {
	for _, p := range jarCandidates(explicit) {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

func jarCandidates(explicit string) []string {
	c := []string{explicit, os.Getenv(JarEnv)}
	if dir, err := os.UserConfigDir(); err == nil {
		c = append(c, filepath.Join(dir, "umlview", "plantuml.jar"))
	}
	if exe, err := os.Executable(); err == nil {
		c = append(c, filepath.Join(filepath.Dir(exe), "plantuml.jar"))
	}
	return append(c,
		"/usr/share/plantuml/plantuml.jar",
		"/usr/share/java/plantuml.jar",
		"/opt/homebrew/opt/plantuml/libexec/plantuml.jar",
		"/usr/local/opt/plantuml/libexec/plantuml.jar",
	)
}

// WithPreferences fills empty paths from values remembered by SavePreferences.
func (o Options) WithPreferences(p fyne.Preferences) Options {
	if p == nil {
		return o
	}
	if o.Java == "" {
		o.Java = p.String(javaPathKey)
	}
	if o.Jar == "" {
		o.Jar = p.String(jarPathKey)
	}
	if o.ServerURL == "" {
		o.ServerURL = p.String(serverURLKey)
	}
	return o
}

// SavePreferences remembers the explicitly configured paths.
func (o Options) SavePreferences(p fyne.Preferences) {
	if p == nil {
		return
	}
	if o.Java != "" {
		p.SetString(javaPathKey, o.Java)
	}
	if o.Jar != "" {
		p.SetString(jarPathKey, o.Jar)
	}
	if o.ServerURL != "" {
		p.SetString(serverURLKey, o.ServerURL)
	}
}
