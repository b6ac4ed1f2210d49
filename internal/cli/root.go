// Package cli is the l2wp command line: archive checks, analysis,
// conversion and import against the same components the gateway serves.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"l2wp/internal/gateway/app"
	"l2wp/internal/gateway/config"
	"l2wp/internal/gateway/service/converter"
	"l2wp/internal/util/jsonutil"
)

// cliUser keys the analysis session for commands run from a terminal.
const cliUser = "cli"

var heading = color.New(color.Bold)

func okMark() string { return color.New(color.FgGreen).Sprint("✓") }
func warnMark() string { return color.New(color.FgYellow).Sprint("!") }
func failMark() string { return color.New(color.FgRed).Sprint("✗") }

// RootCmd assembles the l2wp command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "l2wp",
		Short: "Convert Lovable project archives into builder documents",
		Long: `l2wp analyses a Lovable project zip, detects the functionality it relies
on, recommends substitute plugins and translates its pages into builder
documents.

Configuration comes from l2wp.yaml (or --config), L2WP_* variables and .env.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Config file (default: ./l2wp.yaml)")

	root.AddCommand(ValidateCmd())
	root.AddCommand(AnalyzeCmd())
	root.AddCommand(DetectCmd())
	root.AddCommand(SolutionsCmd())
	root.AddCommand(ConvertCmd())
	root.AddCommand(ImportCmd())
	root.AddCommand(ExportCmd())
	root.AddCommand(ResolveCmd())
	root.AddCommand(RenderCmd())
	root.AddCommand(PreferencesCmd())
	root.AddCommand(ServeCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()
	path, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(path)
	if err != nil {
		return nil, err
	}
	return config.FromViper(v)
}

// withService builds the components for one command and closes them after fn.
func withService(cmd *cobra.Command, fn func(*converter.Service) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	parts, err := app.Build(cfg)
	if err != nil {
		return err
	}
	defer parts.Close()
	return fn(parts.Service)
}

// analyzeArchive pushes a local zip through the same validation and
// analysis path as an upload.
func analyzeArchive(ctx context.Context, svc *converter.Service, path string) (*converter.AnalyzeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return svc.Analyze(ctx, converter.Upload{
		User: cliUser,
		Name: filepath.Base(path),
		Size: info.Size(),
		Body: f,
	})
}

func printJSON(w io.Writer, v any) error {
	data, err := jsonutil.MarshalNoEscapeIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
