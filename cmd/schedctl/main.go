package main

import (
	"fmt"
	"os"

	"github.com/hariom-ql2/schedspec/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "schedctl:", err)
		os.Exit(1)
	}
}
