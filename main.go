package main

import (
	"os"

	"github.com/dsrosen6/hyprdisplay/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		cmd.PrintError(err.Error())
		os.Exit(1)
	}
}
