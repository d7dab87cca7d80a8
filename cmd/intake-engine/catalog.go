package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/catalog"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/cli"
)

var catalogFlags struct {
	file   string
	format string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the program catalog",
	Long: `Validate and inspect the program catalog: the diversion program rules and
the less-restrictive alternatives ladder.

Subcommands:
  validate - Check catalog files for structural and predicate errors
  show     - Print the programs and alternatives of a catalog

Examples:
  # Validate the configured catalog
  intake-engine catalog validate

  # Validate a directory of catalog files
  intake-engine catalog validate --file configs/catalog.d/

  # Show the catalog as JSON
  intake-engine catalog show --format json`,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate catalog files",
	Long: `Validate catalog files. Every problem is reported, not just the first:
duplicate names, malformed predicates, unknown fact fields and missing
standard alternatives.`,
	RunE: validateCatalog,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show catalog contents",
	RunE:  showCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd, catalogShowCmd)

	catalogCmd.PersistentFlags().StringVarP(&catalogFlags.file, "file", "f", "", "catalog file or directory (uses config if not specified)")
	catalogShowCmd.Flags().StringVar(&catalogFlags.format, "format", "text", "output format: text, json, csv")
}

// catalogPath returns --file, falling back to the configured path.
func catalogPath() (string, error) {
	if catalogFlags.file != "" {
		return catalogFlags.file, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Catalog.Path, nil
}

func validateCatalog(cmd *cobra.Command, args []string) error {
	path, err := catalogPath()
	if err != nil {
		return err
	}
	c, err := loadCatalog(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (version %s, %d programs, %d alternatives)\n",
		path, c.Version, len(c.Programs), len(c.Alternatives))
	return nil
}

func showCatalog(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(catalogFlags.format)
	if err != nil {
		return err
	}
	path, err := catalogPath()
	if err != nil {
		return err
	}
	c, err := loadCatalog(path)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), c)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), catalogView{c})
}

// catalogView renders a catalog for text and CSV output.
type catalogView struct {
	c *catalog.Catalog
}

// Header implements cli.Tabular.
func (v catalogView) Header() []string {
	return []string{"type", "name", "required_all", "excluded_if_any", "supervisor_approval_if_any", "reject_if"}
}

// Rows implements cli.Tabular.
func (v catalogView) Rows() [][]string {
	rows := make([][]string, 0, len(v.c.Programs)+len(v.c.Alternatives))
	for _, p := range v.c.Programs {
		rows = append(rows, []string{"program", p.Name,
			strconv.Itoa(len(p.RequiredAll)),
			strconv.Itoa(len(p.ExcludedIfAny)),
			strconv.Itoa(len(p.SupervisorApprovalIfAny)),
			""})
	}
	for _, a := range v.c.Alternatives {
		rows = append(rows, []string{"alternative", a.Name, "", "", "", strconv.Itoa(len(a.RejectIf))})
	}
	return rows
}

// Summary implements cli.Summarizer.
func (v catalogView) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog %s (%s)\n\nPrograms:\n", v.c.Version, v.c.Source)
	for _, p := range v.c.Programs {
		fmt.Fprintf(&b, "  %-32s %d required, %d exclusions", p.Name, len(p.RequiredAll), len(p.ExcludedIfAny))
		if len(p.SupervisorApprovalIfAny) > 0 {
			fmt.Fprintf(&b, ", %d approval triggers", len(p.SupervisorApprovalIfAny))
		}
		b.WriteString("\n")
	}
	if fields := v.c.RequiredFields(); len(fields) > 0 {
		b.WriteString("\nIntake facts read by programs:\n")
		for _, f := range fields {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	b.WriteString("\nAlternatives ladder:\n")
	for i, a := range v.c.Alternatives {
		fmt.Fprintf(&b, "  %d. %-29s %d rejection rules\n", i+1, a.Name, len(a.RejectIf))
	}
	return b.String()
}
