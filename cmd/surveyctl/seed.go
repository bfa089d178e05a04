package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var seedCmd = &cobra.Command{
	Use:   "seed [dir]",
	Short: "Create or replace the templates described in a directory",
	Long: `Every *.yaml file in dir describes one template. Field fragments shared
by several templates live in dir/fragments/<name>.yaml and are appended to
the specific fields of the templates that include them:

  name: Chiller
  include: [notes]
  baseFields:
    location: {kind: text, label: Location, required: true}
  specificFields:
    capacity: {kind: number, label: Capacity (kW)}

Templates are matched by name: seeding twice replaces them and bumps their
version.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

// seedTemplate is the file format of a seeded template.
type seedTemplate struct {
	schema.Template `yaml:",inline"`
	Include         []string `yaml:"include,omitempty"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	templates, err := loadSeed(args[0])
	if err != nil {
		return err
	}

	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	for _, t := range templates {
		saved, err := st.Templates.Upsert(cmd.Context(), t)
		if err != nil {
			return fmt.Errorf("seed %q: %w", t.Name, err)
		}
		log.WithFields(log.Fields{"id": saved.ID, "version": saved.Version}).Debugf("seeded %q", saved.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\tv%d\t%d fields\n", saved.Name, saved.Version, len(saved.Fields()))
	}
	return nil
}

// loadSeed reads and checks the templates of dir, sorted by file name.
func loadSeed(dir string) ([]*schema.Template, error) {
	fragments, err := loadFragments(filepath.Join(dir, "fragments"))
	if err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	templates := make([]*schema.Template, 0, len(paths))
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		seed := seedTemplate{}
		if err := yaml.Unmarshal(b, &seed); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, name := range seed.Include {
			fragment, ok := fragments[name]
			if !ok {
				return nil, fmt.Errorf("%s: unknown fragment %q", path, name)
			}
			seed.SpecificFields = schema.MergeFields(seed.SpecificFields, fragment)
		}

		t := seed.Template
		if err := t.Check(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		templates = append(templates, &t)
	}
	return templates, nil
}

func loadFragments(dir string) (map[string]schema.Fields, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	fragments := map[string]schema.Fields{}
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var fields schema.Fields
		if err := yaml.Unmarshal(b, &fields); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := fields.Check(name); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		fragments[name] = fields
	}
	return fragments, nil
}
