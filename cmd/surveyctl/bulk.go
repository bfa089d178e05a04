package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mbolis/hvac-survey/bulk"
	"github.com/mbolis/hvac-survey/log"
	"github.com/spf13/cobra"
)

var (
	tableFormat string
	outputPath  string
	dryRun      bool
)

var exportCmd = &cobra.Command{
	Use:   "export [template]",
	Short: "Export the surveys of a template as csv or xlsx",
	Long: `Writes one row per survey, one column per leaf field. The template is
given by name or ID. Without --output the table goes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [template] [file]",
	Short: "Import surveys of a template from a csv or xlsx file",
	Long: `Reads a table in the export layout. Rows that fail validation are
reported and skipped; rows whose _id already exists are left alone.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&tableFormat, "format", "f", "", "table format (csv|xlsx), from the output extension by default")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file")
	importCmd.Flags().StringVarP(&tableFormat, "format", "f", "", "table format (csv|xlsx), from the file extension by default")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only check the rows")
}

func runExport(cmd *cobra.Command, args []string) error {
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	t, err := template(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}
	surveys, err := st.Surveys.ListByTemplate(cmd.Context(), t.ID)
	if err != nil {
		return err
	}
	table := bulk.Export(t, surveys)

	var w io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format := formatOf(tableFormat, outputPath); format {
	case "csv":
		err = bulk.WriteCSV(w, table)
	case "xlsx":
		err = bulk.WriteXLSX(w, table, t.Name)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	log.Debugf("exported %d surveys of %q", len(surveys), t.Name)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	var table bulk.Table
	switch format := formatOf(tableFormat, args[1]); format {
	case "csv":
		table, err = bulk.ReadCSV(f)
	case "xlsx":
		table, err = bulk.ReadXLSX(f)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}

	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	t, err := template(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}

	result := bulk.Import(t, table)
	if !dryRun {
		if err := bulk.Save(cmd.Context(), st.Surveys, t, result); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, e := range result.Errors {
		fmt.Fprintln(out, e.Error())
	}
	fmt.Fprintln(out, result.Summary())
	if !dryRun {
		fmt.Fprintf(out, "%d imported, %d already present\n", result.Imported, result.Skipped)
	}
	return nil
}
