package main

import (
	"os"

	"github.com/MAjunjie0415/deepread-cc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
