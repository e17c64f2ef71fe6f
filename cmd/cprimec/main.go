package main

import (
	"os"

	"github.com/GeorgieTragnar/cprime-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
