package cmd

import (
	"fmt"
	"io"

	"github.com/josephgoksu/ReqWing/internal/config"
	"github.com/josephgoksu/ReqWing/internal/rules"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var rulesChecks []string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the business rules or check requirements against them",
	Long: `Print the active business rules. Requirements are validated against
these rules before a document is generated.

The built-in rules describe FinTrack Pro. Override them with a YAML file at
.reqwing/rules.yaml, ~/.reqwing/rules.yaml or the rules.path setting.

With --check, each given requirement is run through the local policy
pre-check instead.`,
	Example: `  reqwing rules
  reqwing rules --check "Mobile app for iOS" --check "Sync bank accounts"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := rules.NewStore(afero.NewOsFs(), config.RulesPath())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(rulesChecks) == 0 {
			return printRules(out, store)
		}
		checker, err := rules.NewChecker(cmd.Context())
		if err != nil {
			return err
		}
		findings, err := checker.Check(cmd.Context(), store.Current(), rulesChecks)
		if err != nil {
			return err
		}
		printFindings(out, rulesChecks, findings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringArrayVar(&rulesChecks, "check", nil, "requirement to run through the policy pre-check (repeatable)")
}

func printRules(out io.Writer, store *rules.Store) error {
	doc, err := store.Current().YAML()
	if err != nil {
		return err
	}
	source := "built-in"
	if store.Path() != "" {
		source = store.Path()
	}
	fmt.Fprintf(out, "# source: %s\n%s", source, doc)
	return nil
}

func printFindings(out io.Writer, requirements []string, findings []rules.Finding) {
	byReq := make(map[string][]rules.Finding, len(findings))
	for _, f := range findings {
		byReq[f.Requirement] = append(byReq[f.Requirement], f)
	}
	for _, req := range requirements {
		fs := byReq[req]
		if len(fs) == 0 {
			fmt.Fprintf(out, "ok    %s\n", req)
			continue
		}
		for _, f := range fs {
			fmt.Fprintf(out, "flag  %s [%s] %s\n", req, f.Kind, f.Note)
		}
	}
}
