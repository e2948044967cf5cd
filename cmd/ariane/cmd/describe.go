package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PierreBx/ariane-xml-sub000/internal/dispatch"
)

var describeCmd = &cobra.Command{
	Use:   "describe <shortcut|full_name|bloc>",
	Short: "print DSN schema info for one shortcut, full name, or bloc (DSN mode only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, err := buildContext()
		if err != nil {
			return err
		}
		res, derr := dispatch.Dispatch(ctx, "DESCRIBE "+args[0])
		if derr != nil {
			return derr
		}
		fmt.Println(res.Output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
