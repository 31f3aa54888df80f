package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/handlers/resources"
)

func (a *app) listCmd() *cobra.Command {
	var output string
	names := make([]string, 0, len(resources.Catalog))
	for _, r := range resources.Catalog {
		names = append(names, r.Name)
	}
	cmd := &cobra.Command{
		Use:       "list <resource>",
		Short:     "List a collection visible to the current role",
		Long:      "List a collection visible to the current role.\n\nResources: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := resources.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("%w %q (one of: %s)", err, args[0], strings.Join(names, ", "))
			}
			sess, err := a.requireSession(ctx, res.Read...)
			if err != nil {
				return err
			}
			items, err := resources.Fetch(ctx, a.api, sess, res)
			if err != nil {
				return a.upstream(ctx, err, "failed to load "+res.Name)
			}
			return render(cmd.OutOrStdout(), output, items)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	return cmd
}

// render prints v as indented JSON or as YAML. YAML goes through JSON first
// so field names match the backend's.
func render(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	switch format {
	case "json", "":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
