package main

import (
	"os"

	"github.com/PierreBx/ariane-xml-sub000/cmd/ariane/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
