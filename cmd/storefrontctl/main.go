package main

import (
	"os"

	"storefront/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
