package main

import (
	"os"

	"github.com/scan-io-git/vulnsmith/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
