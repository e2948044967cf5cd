package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PierreBx/ariane-xml-sub000/internal/dispatch"
	"github.com/PierreBx/ariane-xml-sub000/internal/engine"
	"github.com/PierreBx/ariane-xml-sub000/internal/format"
)

var execScript string

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "run a ;-or-newline-separated sequence of commands and queries against one AppContext",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, err := buildContext()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(execScript)
		if err != nil {
			return err
		}

		e := engine.New(ctx)
		for _, stmt := range splitStatements(string(data)) {
			res, derr := dispatch.Dispatch(ctx, stmt)
			if derr != nil {
				return derr
			}
			if !res.IsQuery {
				fmt.Println(res.Output)
				continue
			}
			rs, _, qerr := e.Query(context.Background(), res.Remainder)
			if qerr != nil {
				return qerr
			}
			fmt.Print(format.PlainText(rs))
		}
		return nil
	},
}

// splitStatements breaks a script into individual statements on ';' or
// newline, discarding blank lines.
func splitStatements(script string) []string {
	replaced := strings.ReplaceAll(script, ";", "\n")
	lines := strings.Split(replaced, "\n")
	var out []string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func init() {
	execCmd.Flags().StringVar(&execScript, "script", "", "path to the script file")
	_ = execCmd.MarkFlagRequired("script")
	rootCmd.AddCommand(execCmd)
}
