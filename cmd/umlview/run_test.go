package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "umlview.yaml")
	data := `renderer: server
server: http://uml.internal:8080
jar: /opt/plantuml.jar
watch: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, renderer, server, jar string, watch, zoomMod bool)
		wantErr bool
	}{
		{
			name: "config only",
			args: []string{"--config", path},
			check: func(t *testing.T, renderer, server, jar string, watch, _ bool) {
				// the renderer flag default must not override the file
				if renderer != "server" || server != "http://uml.internal:8080" || jar != "/opt/plantuml.jar" || !watch {
					t.Errorf("Expected config values, got %s %s %s %v", renderer, server, jar, watch)
				}
			},
		},
		{
			name: "flags win",
			args: []string{"-c", path, "-r", "local", "--server", "http://other", "--watch=false", "--zoom-with-modifier"},
			check: func(t *testing.T, renderer, server, jar string, watch, zoomMod bool) {
				if renderer != "local" || server != "http://other" || watch || !zoomMod {
					t.Errorf("Expected flags applied, got %s %s %v %v", renderer, server, watch, zoomMod)
				}
				if jar != "/opt/plantuml.jar" {
					t.Errorf("Expected jar from config, got %s", jar)
				}
			},
		},
		{
			name: "missing config",
			args: []string{"--config", filepath.Join(dir, "nope.yaml"), "--jar", "/tmp/p.jar"},
			check: func(t *testing.T, renderer, server, jar string, watch, _ bool) {
				if renderer != "auto" || server != "" || jar != "/tmp/p.jar" || watch {
					t.Errorf("Expected defaults plus jar, got %s %q %s %v", renderer, server, jar, watch)
				}
			},
		},
		{
			name:    "invalid format flag",
			args:    []string{"--config", path, "--format", "gif"},
			wantErr: true,
		},
		{
			name:    "invalid renderer flag",
			args:    []string{"--config", path, "--renderer", "cloud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flags
			cmd := &cobra.Command{}
			bindFlags(cmd.Flags(), &f)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}

			cfg, err := loadConfig(cmd, f)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig failed: %v", err)
			}
			tt.check(t, cfg.Renderer, cfg.Server, cfg.Jar, cfg.Watch, cfg.Viewer.ZoomWithModifier)
		})
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	puml := filepath.Join(dir, "seq.puml")
	txt := filepath.Join(dir, "notes.txt")
	for _, f := range []string{puml, txt} {
		if err := os.WriteFile(f, []byte("@startuml\n@enduml\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	sub := filepath.Join(dir, "diagrams.puml")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path    string
		wantErr bool
	}{
		{puml, false},
		{txt, true},
		{sub, true},
		{filepath.Join(dir, "missing.puml"), true},
	}
	for _, tt := range tests {
		err := checkFile(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkFile(%s) = %v, wantErr %v", filepath.Base(tt.path), err, tt.wantErr)
		}
	}
}
