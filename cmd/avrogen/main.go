// Package main provides the CLI entry point for avrogen, a tool that
// generates Go source from Avro schema files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	charmlog "charm.land/log/v2"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/avrocore/avro"
)

// outputFormat is a pflag.Value restricting --format to a closed set of
// recognized values instead of accepting any string.
type outputFormat string

const (
	formatSource outputFormat = "source"
	formatPCF    outputFormat = "pcf"
)

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }
func (f *outputFormat) Type() string   { return "format" }
func (f *outputFormat) Set(v string) error {
	switch outputFormat(v) {
	case formatSource, formatPCF:
		*f = outputFormat(v)
		return nil
	default:
		return fmt.Errorf("avrogen: unknown --format %q, want source or pcf", v)
	}
}

// manifestEntry describes one schema-to-package generation job in a batch
// manifest file.
type manifestEntry struct {
	Schema  string `yaml:"schema"`
	Package string `yaml:"package"`
	Out     string `yaml:"out"`
}

func main() {
	var (
		packageName string
		outPath     string
		manifest    string
	)
	format := formatSource

	logger := charmlog.New(os.Stderr)

	rootCmd := &cobra.Command{
		Use:           "avrogen [flags] <schema.avsc>",
		Short:         "Generate Go source from an Avro schema",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, args []string) error {
			if manifest != "" {
				return runManifest(logger, manifest)
			}
			if len(args) != 1 {
				return fmt.Errorf("avrogen: exactly one schema file required unless --manifest is set")
			}
			if format == formatPCF {
				return printCanonicalForm(args[0], outPath)
			}
			return generateOne(logger, args[0], packageName, outPath)
		},
	}

	rootCmd.Flags().StringVar(&packageName, "package", "avrogen", "Go package name for generated source")
	rootCmd.Flags().StringVar(&outPath, "out", "-", "output file path, or - for stdout")
	rootCmd.Flags().StringVar(&manifest, "manifest", "", "YAML manifest of {schema, package, out} batch generation jobs")
	rootCmd.Flags().Var(&format, "format", "output format: source or pcf")

	if err := rootCmd.Execute(); err != nil {
		logger.Error("avrogen failed", "error", err)
		os.Exit(1)
	}
}

func generateOne(logger *charmlog.Logger, schemaPath, packageName, outPath string) error {
	schema, err := avro.ParseSchemaFile(schemaPath)
	if err != nil {
		return fmt.Errorf("parsing schema %s: %w", schemaPath, err)
	}

	src, err := avro.Emit(packageName, schema)
	if err != nil {
		return fmt.Errorf("generating source for %s: %w", schemaPath, err)
	}

	if outPath == "" || outPath == "-" {
		_, err := os.Stdout.WriteString(src)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", outPath, err)
	}
	if err := os.WriteFile(outPath, []byte(src), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	logger.Debug("generated source", "schema", schemaPath, "out", outPath, "package", packageName)
	return nil
}

// printCanonicalForm writes schema's Parsing Canonical Form, useful for
// diffing two schemas or computing a fingerprint out of band.
func printCanonicalForm(schemaPath, outPath string) error {
	schema, err := avro.ParseSchemaFile(schemaPath)
	if err != nil {
		return fmt.Errorf("parsing schema %s: %w", schemaPath, err)
	}
	pcf, err := schema.Canonical()
	if err != nil {
		return fmt.Errorf("computing canonical form of %s: %w", schemaPath, err)
	}
	if outPath == "" || outPath == "-" {
		_, err := fmt.Println(string(pcf))
		return err
	}
	return os.WriteFile(outPath, pcf, 0o644)
}

func runManifest(logger *charmlog.Logger, manifestPath string) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest %s: %w", manifestPath, err)
	}

	var entries []manifestEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parsing manifest %s: %w", manifestPath, err)
	}

	for _, entry := range entries {
		logger.Debug("processing manifest entry", "schema", entry.Schema, "package", entry.Package)
		if err := generateOne(logger, entry.Schema, entry.Package, entry.Out); err != nil {
			return fmt.Errorf("manifest entry %s: %w", entry.Schema, err)
		}
	}
	logger.Debug("manifest generation complete", "entries", len(entries))
	return nil
}
