// Command surveyctl maintains an hvac-survey database from the command
// line: seeding templates, bulk export/import and user accounts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbolis/hvac-survey/config"
	"github.com/mbolis/hvac-survey/database"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/schema"
	"github.com/mbolis/hvac-survey/store"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "surveyctl",
	Short: "Maintain the HVAC survey database",
	Long: `surveyctl works directly on the database the server uses.

Database flags are shared with the server, e.g.
  surveyctl --db-url hvac-survey.sqlite seed ./seed`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg.Complete()
		if cfg.Debug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	fs := flag.NewFlagSet("surveyctl", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)

	rootCmd.AddCommand(seedCmd, exportCmd, importCmd, docCmd, useraddCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the configured database. The returned func closes it.
func openStore() (*store.Store, func(), error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return store.New(db), func() { db.Close() }, nil
}

// template loads a template by name, or by ID when name is numeric.
func template(ctx context.Context, st *store.Store, name string) (*schema.Template, error) {
	var id int
	if _, err := fmt.Sscanf(name, "%d", &id); err == nil && fmt.Sprint(id) == name {
		return st.Templates.Get(ctx, id)
	}
	return st.Templates.GetByName(ctx, name)
}

// formatOf picks the table format from an explicit flag or the file
// extension.
func formatOf(format, path string) string {
	if format != "" {
		return format
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return "xlsx"
	}
	return "csv"
}
