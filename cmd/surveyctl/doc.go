package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mbolis/hvac-survey/docgen"
	"github.com/spf13/cobra"
)

var docFormat string

var docCmd = &cobra.Command{
	Use:   "doc [template]",
	Short: "Print the documentation of a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runDoc,
}

func init() {
	docCmd.Flags().StringVarP(&docFormat, "format", "f", "markdown", "markdown, outline or jsonschema")
}

func runDoc(cmd *cobra.Command, args []string) error {
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	t, err := template(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch docFormat {
	case "markdown":
		_, err = io.WriteString(out, docgen.Markdown(t))
	case "outline":
		_, err = io.WriteString(out, docgen.Outline(t))
	case "jsonschema":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(docgen.JSONSchema(t))
	default:
		return fmt.Errorf("unknown format %q", docFormat)
	}
	return err
}
