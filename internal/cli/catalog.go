package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"l2wp/internal/gateway/service/converter"
)

// SolutionsCmd lists the ranked candidates for one functionality key.
func SolutionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solutions <key>",
		Short: "List the ranked substitutes for a functionality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				out := cmd.OutOrStdout()
				list := svc.Solutions(cmd.Context(), args[0])
				if len(list) == 0 {
					fmt.Fprintf(out, "No solutions known for %q.\n", args[0])
					return nil
				}
				for i, s := range list {
					state := ""
					switch {
					case s.Active:
						state = okMark() + " active"
					case s.Installed:
						state = warnMark() + " installed"
					}
					premium := ""
					if s.Premium {
						premium = " (premium)"
					}
					fmt.Fprintf(out, "%d. %-28s %-8s %3d%%  %s%s %s\n", i+1, s.Slug, s.Type, s.Compatibility, s.Name, premium, state)
				}
				return nil
			})
		},
	}
}

// ExportCmd stores a design document as a builder template.
func ExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <design.json>",
		Short: "Translate a design document and store it as a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withService(cmd, func(svc *converter.Service) error {
				res, err := svc.Export(cmd.Context(), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s exported %q as %s (%s)\n", okMark(), res.Title, res.ID, res.Type)
				return nil
			})
		},
	}
}

// ResolveCmd renders placeholders against a configured context.
func ResolveCmd() *cobra.Command {
	var contextID string
	cmd := &cobra.Command{
		Use:   "resolve <text>",
		Short: "Render {{placeholders}} in text",
		Long: `Render {{placeholders}} in text against a context from
placeholder.contexts_path. Tokens that cannot be resolved are kept.

Example:
  l2wp resolve "Welcome to {{post.title}}" --context 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				res := svc.Resolve(cmd.Context(), args[0], contextID)
				fmt.Fprintln(cmd.OutOrStdout(), res.Text)
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", warnMark(), e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&contextID, "context", "", "Context id to render against")
	return cmd
}

// RenderCmd prints a stored document with its placeholders resolved.
func RenderCmd() *cobra.Command {
	var contextID string
	cmd := &cobra.Command{
		Use:   "render <document-id>",
		Short: "Render the placeholders of a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				res, err := svc.RenderDocument(cmd.Context(), args[0], contextID)
				if err != nil {
					return err
				}
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", warnMark(), e)
				}
				return printJSON(cmd.OutOrStdout(), res.Document)
			})
		},
	}
	cmd.Flags().StringVar(&contextID, "context", "", "Context id to render against")
	return cmd
}

// PreferencesCmd shows or clears the saved plugin choices.
func PreferencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preferences",
		Short: "Show the saved plugin choices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				prefs := svc.Preferences(cmd.Context())
				out := cmd.OutOrStdout()
				if len(prefs) == 0 {
					fmt.Fprintln(out, "No saved preferences.")
					return nil
				}
				keys := make([]string, 0, len(prefs))
				for k := range prefs {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "%-20s %s\n", k, prefs[k])
				}
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget every saved plugin choice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *converter.Service) error {
				if err := svc.ClearPreferences(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s preferences cleared\n", okMark())
				return nil
			})
		},
	})
	return cmd
}
