package main

import (
	"os"

	"github.com/iyhunko/catalog-importer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
