package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitebrief/pkg/brand"
	"github.com/jmylchreest/sitebrief/pkg/schema"
)

const (
	presetProfile = "profile"
	presetPosts   = "posts"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print a schema as JSON Schema",
	Long: `Render a schema file or built-in preset as JSON Schema, for callers
that ask a model for structured output.

Examples:
  sitebrief schema --preset profile --tone playful
  sitebrief schema -s schema.yaml -f yaml`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	addSchemaFlags(schemaCmd)
	addOutputFlags(schemaCmd, "json")
}

// addSchemaFlags registers --schema, --preset and --tone.
func addSchemaFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("schema", "s", "", "path to schema file (JSON or YAML)")
	cmd.Flags().String("preset", "", "built-in schema: profile, posts")
	cmd.Flags().String("tone", "friendly", "tone preset used as the default tone")
	cmd.MarkFlagsMutuallyExclusive("schema", "preset")
	cmd.MarkFlagsOneRequired("schema", "preset")
}

// resolveSchema loads --schema or builds --preset, returning the preset name.
func resolveSchema(cmd *cobra.Command) (schema.Schema, string, error) {
	_ = viper.BindPFlag("tone", cmd.Flags().Lookup("tone"))

	if path, _ := cmd.Flags().GetString("schema"); path != "" {
		s, err := schema.FromFile(path)
		if err != nil {
			return schema.Schema{}, "", err
		}
		return s, "", nil
	}

	preset, _ := cmd.Flags().GetString("preset")
	s, err := presetSchema(preset, viper.GetString("tone"))
	return s, preset, err
}

func presetSchema(name, tone string) (schema.Schema, error) {
	switch name {
	case presetProfile:
		return brand.ProfileSchema(tone), nil
	case presetPosts:
		return brand.PostsSchema(), nil
	default:
		return schema.Schema{}, fmt.Errorf("unknown preset: %s (use 'profile' or 'posts')", name)
	}
}

func runSchema(cmd *cobra.Command, args []string) error {
	s, _, err := resolveSchema(cmd)
	if err != nil {
		return err
	}

	w, closeFn, err := openWriter(cmd)
	if err != nil {
		return err
	}
	if err := w.Write(s.ToJSONSchema()); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}
