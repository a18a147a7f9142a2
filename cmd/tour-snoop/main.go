package main

import (
	"os"

	"github.com/pfrederiksen/tour-snoop/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	os.Exit(cli.Execute())
}
