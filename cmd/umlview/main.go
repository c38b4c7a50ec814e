package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	configPath       string
	renderer         string
	server           string
	jar              string
	java             string
	format           string
	watch            bool
	zoomWithModifier bool
	noCache          bool
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "umlview [file]",
		Short: "Preview PlantUML diagrams",
		Long: `umlview renders a PlantUML document with a local plantuml.jar or a
PlantUML server and shows it in a zoomable viewer.`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			var path string
			if len(args) == 1 {
				path = args[0]
				if err := checkFile(path); err != nil {
					return err
				}
			}
			return run(cfg, path)
		},
	}

	bindFlags(cmd.Flags(), &f)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.StringVarP(&f.configPath, "config", "c", "", "Config file (defaults to the user config directory)")
	fs.StringVarP(&f.renderer, "renderer", "r", "auto", "Renderer to use: auto, local or server")
	fs.StringVar(&f.server, "server", "", "PlantUML server URL")
	fs.StringVar(&f.jar, "jar", "", "Path to plantuml.jar")
	fs.StringVar(&f.java, "java", "", "Java executable")
	fs.StringVar(&f.format, "format", "", "Output requested from plantuml.jar: svg or png")
	fs.BoolVarP(&f.watch, "watch", "w", false, "Re-render when the file changes")
	fs.BoolVar(&f.zoomWithModifier, "zoom-with-modifier", false, "Scroll with the wheel, zoom with Ctrl+wheel")
	fs.BoolVar(&f.noCache, "no-cache", false, "Do not keep rendered diagrams on disk")
}
