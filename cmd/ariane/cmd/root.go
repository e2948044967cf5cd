// Package cmd implements the ariane CLI's command tree: a one-shot process
// invocation hosting the core query/describe/exec operations, not
// the out-of-scope interactive REPL.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/PierreBx/ariane-xml-sub000/internal/appctx"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

var (
	rootCmd = &cobra.Command{
		Use:          "ariane",
		Short:        "ariane-xml",
		SilenceUsage: true,
		Long:         "Query XML documents with a SQL-like language.",
	}

	verbose    bool
	mode       string
	dsnVersion string
	xsdPath    string
	destPath   string
)

// Execute runs the root command.
func Execute() error {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable ambiguity warnings")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "STANDARD", "STANDARD or DSN")
	rootCmd.PersistentFlags().StringVar(&dsnVersion, "dsn-version", "AUTO", "P25, P26 or AUTO")
	rootCmd.PersistentFlags().StringVar(&xsdPath, "xsd", "", "directory of XSD files (DSN mode)")
	rootCmd.PersistentFlags().StringVar(&destPath, "dest", "", "DEST directory (recorded in the context; results are not written to it)")
	return rootCmd.Execute()
}

// buildContext constructs an AppContext from the config file's defaults
// (if any) and then the persistent flags, the way every subcommand needs
// it. Flags take precedence over config-file defaults wherever the user
// explicitly set them.
func buildContext() (*appctx.AppContext, error) {
	ctx := appctx.New()

	defaults, err := appctx.LoadDefaults()
	if err != nil {
		return nil, err
	}
	appctx.ApplyDefaults(ctx, defaults)

	ctx.SetVerbose(verbose)
	if mode == "DSN" {
		ctx.SetMode(query.ModeDSN)
	}
	if defaults.DSNVersion == "" || rootCmd.PersistentFlags().Changed("dsn-version") {
		ctx.SetDSNVersion(query.DSNVersion(dsnVersion))
	}
	if xsdPath != "" {
		if _, err := ctx.SetXSDPath(xsdPath); err != nil {
			return nil, err
		}
	}
	if destPath != "" {
		if err := ctx.SetDestPath(destPath); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}
