package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"l2wp/internal/apperr"
	"l2wp/internal/archive"
	"l2wp/internal/gateway/service/converter"
	"l2wp/internal/importer"
)

// ValidateCmd checks an archive against the upload rules without
// extracting it.
func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <archive.zip>",
		Short: "Check a project archive against the upload rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			report, err := archive.NewValidator(cfg.Upload.MaxBytes).Validate(filepath.Base(args[0]), args[0])
			if err != nil {
				fmt.Fprintf(out, "%s %s\n", failMark(), apperr.Public(err))
				var ae *apperr.Error
				if errors.As(err, &ae) {
					for _, item := range ae.Items {
						fmt.Fprintf(out, "    - %s\n", item)
					}
				}
				return fmt.Errorf("archive is not valid")
			}
			fmt.Fprintf(out, "%s %s (%d entries)\n", okMark(), args[0], report.Entries)
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "%s %s\n", warnMark(), w)
			}
			return nil
		},
	}
}

// AnalyzeCmd prints the project model of an archive.
func AnalyzeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <archive.zip>",
		Short: "Analyse a project archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				res, err := analyzeArchive(cmd.Context(), svc, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, res)
				}
				m := res.Model
				heading.Fprintf(out, "%s\n", m.Name)
				if m.Description != "" {
					fmt.Fprintln(out, m.Description)
				}
				fmt.Fprintf(out, "build:      %s\n", m.Build.Tool)
				fmt.Fprintf(out, "pages:      %d\n", len(m.Pages))
				for _, p := range m.Pages {
					fmt.Fprintf(out, "  - %s (%s)\n", p.Name, p.Path)
				}
				fmt.Fprintf(out, "components: %d\n", len(m.Components))
				fmt.Fprintf(out, "assets:     %d images, %d fonts, %d stylesheets\n",
					len(m.Assets.Images), len(m.Assets.Fonts), len(m.Assets.Stylesheets))
				if len(res.Style.Palette) > 0 {
					fmt.Fprintln(out, "palette:")
					for _, p := range res.Style.Palette {
						fmt.Fprintf(out, "  %-14s %s\n", p.Label, p.Color)
					}
				}
				for _, w := range res.Warnings {
					fmt.Fprintf(out, "%s %s\n", warnMark(), w)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full analysis as JSON")
	return cmd
}

// DetectCmd lists the functionality found in an archive with the
// preferred substitute for each.
func DetectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "detect <archive.zip>",
		Short: "Detect functionality and recommend substitutes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				if _, err := analyzeArchive(cmd.Context(), svc, args[0]); err != nil {
					return err
				}
				res, err := svc.Detect(cmd.Context(), cliUser)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, res)
				}
				if len(res.Detections) == 0 {
					fmt.Fprintln(out, "No functionality detected.")
					return nil
				}
				fmt.Fprintf(out, "%-16s %-26s %6s  %s\n", "KEY", "NAME", "COUNT", "PREFERRED")
				for _, d := range res.Detections {
					preferred := d.Preferred
					if preferred == "" {
						preferred = "-"
					}
					fmt.Fprintf(out, "%-16s %-26s %6d  %s\n", d.Key, d.Name, d.Count, preferred)
				}
				s := res.Stats
				fmt.Fprintf(out, "\n%d functionalities, %d plugins needed (%d installed, %d active), %d native\n",
					s.TotalFunctionalities, s.PluginsNeeded, s.PluginsInstalled, s.PluginsActive, s.NativeSolutions)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print detections as JSON")
	return cmd
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

func documentFileName(title string, i int) string {
	slug := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = fmt.Sprintf("page-%d", i+1)
	}
	return slug + ".json"
}

// ConvertCmd translates every page of an archive into builder documents.
func ConvertCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "convert <archive.zip>",
		Short: "Translate the pages of an archive into builder documents",
		Long: `Translate every page of an archive into a builder document.

Without --out the documents are printed as one JSON array. With --out each
document is written to <dir>/<page>.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				if _, err := analyzeArchive(cmd.Context(), svc, args[0]); err != nil {
					return err
				}
				docs, err := svc.Translate(cliUser)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if outDir == "" {
					return printJSON(out, docs)
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", outDir, err)
				}
				for i, d := range docs {
					p := filepath.Join(outDir, documentFileName(d.Title, i))
					f, err := os.Create(p)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", p, err)
					}
					err = printJSON(f, d)
					if cerr := f.Close(); err == nil {
						err = cerr
					}
					if err != nil {
						return fmt.Errorf("failed to write %s: %w", p, err)
					}
					fmt.Fprintf(out, "%s %s\n", okMark(), p)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write one JSON file per page")
	return cmd
}

// ImportCmd runs a full import of an archive into the configured stores.
func ImportCmd() *cobra.Command {
	var opts converter.ImportOptions
	cmd := &cobra.Command{
		Use:   "import <archive.zip>",
		Short: "Import an archive: plugins, pages, assets and styles",
		Long: `Import an archive into the configured document and media stores.

Plugin choices map a functionality key to a plugin slug, or to "skip":

  l2wp import site.zip --choice forms=contact-form-7 --choice animations=skip --install`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				if _, err := analyzeArchive(cmd.Context(), svc, args[0]); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				res, err := svc.Import(cmd.Context(), cliUser, opts, func(ev importer.Event) {
					mark := okMark()
					if ev.Error != "" {
						mark = failMark()
					}
					fmt.Fprintf(out, "%s %-11s %s\n", mark, ev.Stage, ev.Message)
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				status := okMark()
				if res.Status != importer.StatusSuccess {
					status = warnMark()
				}
				fmt.Fprintf(out, "%s import %s: %s, %d pages, %d plugins, %d assets\n",
					status, res.ImportID, res.Status, res.CreatedPages, len(res.InstalledPlugins), res.ImportedAssets)
				if res.CSSURL != "" {
					fmt.Fprintf(out, "  stylesheet: %s\n", res.CSSURL)
				}
				for _, e := range res.Errors {
					fmt.Fprintf(out, "  %s %s\n", failMark(), e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringToStringVar(&opts.Choices, "choice", nil, "Plugin choice as key=slug (repeatable)")
	cmd.Flags().BoolVar(&opts.InstallPlugins, "install", false, "Install and activate the chosen plugins")
	cmd.Flags().BoolVar(&opts.ImportAssets, "assets", false, "Copy images and fonts to the media store")
	cmd.Flags().BoolVar(&opts.ApplyCSS, "css", false, "Publish the generated stylesheet")
	cmd.Flags().BoolVar(&opts.RememberPreferences, "remember", false, "Save the plugin choices as preferences")
	return cmd
}
