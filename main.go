package main

import (
	"os"

	"github.com/fastmlab/expci/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
