package cmd

import (
	"context"
	"fmt"

	"github.com/alecthomas/repr"
	"github.com/spf13/cobra"

	"github.com/PierreBx/ariane-xml-sub000/internal/engine"
	"github.com/PierreBx/ariane-xml-sub000/internal/format"
)

var queryFrom string

var queryCmd = &cobra.Command{
	Use:   "query <query>",
	Short: "parse and execute one query, printing the plain-text result",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, err := buildContext()
		if err != nil {
			return err
		}
		text := args[0]
		if queryFrom != "" {
			text = fmt.Sprintf(`%s FROM "%s"`, text, queryFrom)
		}

		e := engine.New(ctx)
		rs, warnings, qerr := e.Query(context.Background(), text)
		if qerr != nil {
			return qerr
		}
		if verbose {
			fmt.Println(repr.Repr(rs, repr.Indent("  ")))
			for _, w := range warnings {
				fmt.Println(w.Error())
			}
		}
		fmt.Print(format.PlainText(rs))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryFrom, "from", "", "file or directory to query (alternative to embedding FROM in the query text)")
	rootCmd.AddCommand(queryCmd)
}
