package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

var (
	fldLoad loadFlags
	fldJSON bool
)

var fieldsCmd = &cobra.Command{
	Use:   "fields <file>",
	Short: "Show inferred field types and business meanings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := fldLoad.options()
		if err != nil {
			return err
		}
		ds, err := dataset.LoadFile(args[0], opt)
		if err != nil {
			return err
		}
		types := newEngine().InferFieldTypes(ds)
		meanings, err := analysis.InferFieldMeanings(ds.Columns, ds)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if fldJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"columns":       ds.Columns,
				"fieldTypes":    types,
				"fieldMeanings": meanings,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "%s: %d rows, %d fields\n", ds.Name, ds.Len(), len(ds.Columns))
		for _, c := range ds.Columns {
			ft, m := types[c], meanings[c]
			name := c
			if u := ds.Units[c]; u != "" {
				name += " [" + u + "]"
			}
			fmt.Fprintf(out, "- %s: %s, %s (%s; %s)\n", name, ft.Kind, m.InferredPurpose, m.BusinessRole, strings.Join(m.VisualizationRoles, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	fldLoad.register(fieldsCmd)
	fieldsCmd.Flags().BoolVar(&fldJSON, "json", false, "print JSON instead of a list")
}
