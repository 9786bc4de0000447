package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/sitebrief/internal/logger"
	"github.com/jmylchreest/sitebrief/internal/output"
	"github.com/jmylchreest/sitebrief/pkg/brand"
	"github.com/jmylchreest/sitebrief/pkg/extractor"
	"github.com/jmylchreest/sitebrief/pkg/schema"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Recover structured records from generated text",
	Long: `Read model output and recover the JSON payload it was asked for,
then coerce it to a schema. The payload may be the whole input, inside a
code fence, or embedded in prose; near-miss JSON (single quotes, trailing
commas, comments) is accepted as a last resort.

Missing or mistyped fields take their schema defaults. The command fails
only when no payload can be found or its shape cannot match the schema.

Examples:
  sitebrief extract -i reply.txt --preset profile --tone bold
  cat reply.txt | sitebrief extract -s schema.json -f jsonl
  sitebrief extract -i posts.txt --preset posts --profile profile.json --defaults`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.StringP("input", "i", "", "file with generated text (default: stdin)")
	addSchemaFlags(extractCmd)
	flags.String("profile", "", "brand profile (JSON or YAML) used by the posts preset")
	flags.Bool("defaults", false, "with a preset, print default records instead of failing")
	flags.String("max-input", "20KB", "max input scanned for a payload (e.g., 20KB)")
	flags.Bool("strict", false, "disable the lenient JSON5 pass")
	addOutputFlags(extractCmd, "json")

	_ = viper.BindPFlag("extract.max_input", flags.Lookup("max-input"))
	_ = viper.BindPFlag("extract.strict", flags.Lookup("strict"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	raw, err := readInput(inputPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	s, preset, err := resolveSchema(cmd)
	if err != nil {
		return err
	}
	tone := viper.GetString("tone")

	maxInput, err := humanize.ParseBytes(viper.GetString("extract.max_input"))
	if err != nil {
		return fmt.Errorf("invalid max-input %q: %w", viper.GetString("extract.max_input"), err)
	}

	ext := extractor.New(
		extractor.WithMaxInputBytes(int(maxInput)),
		extractor.WithLenient(!viper.GetBool("extract.strict")),
	)
	logger.Debug("extracting", "schema", s.Name, "input_size", humanize.Bytes(uint64(len(raw))), "preset", preset)

	res, extractErr := ext.Extract(raw, s)
	if extractErr != nil {
		var extErr *extractor.ExtractionError
		if errors.As(extractErr, &extErr) {
			logger.Error("extraction failed", "reason", extErr.Reason, "sample", extErr.RawSample)
		}
		useDefaults, _ := cmd.Flags().GetBool("defaults")
		if !useDefaults || preset == "" {
			return extractErr
		}
		logger.Warn("using default records", "preset", preset)
	} else {
		logger.Info("extracted",
			"schema", s.Name,
			"records", len(res.Records),
			"stage", res.Stage,
			"lenient", res.Lenient,
			"dropped", res.Dropped)
	}

	w, closeFn, err := openWriter(cmd)
	if err != nil {
		return err
	}

	switch preset {
	case presetProfile:
		err = writeProfile(w, res, tone)
	case presetPosts:
		err = writePosts(cmd, w, res, tone)
	default:
		err = writeRecords(w, res, s)
	}
	if err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func writeRecords(w output.Writer, res *extractor.Result, s schema.Schema) error {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}

	items := make([]any, len(res.Records))
	for i, rec := range res.Records {
		items[i] = output.Order(rec, names)
	}
	if s.List {
		return w.WriteAll(items)
	}
	return w.Write(items[0])
}

func writeProfile(w output.Writer, res *extractor.Result, tone string) error {
	if res == nil {
		return w.Write(brand.DefaultProfile(tone))
	}
	p, err := brand.DecodeProfile(res)
	if err != nil {
		return err
	}
	return w.Write(p)
}

func writePosts(cmd *cobra.Command, w output.Writer, res *extractor.Result, tone string) error {
	profile, err := loadProfile(cmd, tone)
	if err != nil {
		return err
	}

	var posts []brand.Post
	if res != nil {
		if posts, err = brand.DecodePosts(res, profile); err != nil {
			return err
		}
	}
	if len(posts) == 0 {
		useDefaults, _ := cmd.Flags().GetBool("defaults")
		if !useDefaults {
			return fmt.Errorf("no usable posts in input")
		}
		posts = brand.DefaultPosts(profile, tone)
	}

	items := make([]any, len(posts))
	for i, p := range posts {
		items[i] = p
	}
	return w.WriteAll(items)
}

// loadProfile reads --profile, or returns the default profile for tone.
func loadProfile(cmd *cobra.Command, tone string) (brand.Profile, error) {
	path, _ := cmd.Flags().GetString("profile")
	if path == "" {
		return brand.DefaultProfile(tone), nil
	}
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads a user-specified file
	if err != nil {
		return brand.Profile{}, fmt.Errorf("read profile: %w", err)
	}
	p := brand.DefaultProfile(tone)
	if err := yaml.Unmarshal(data, &p); err != nil {
		return brand.Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// readInput reads path, or r when path is empty or "-".
func readInput(path string, r io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads a user-specified file
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}
