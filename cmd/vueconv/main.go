// Package main provides the entry point for the vueconv CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Sumatoshi-tech/vueconv/cmd/vueconv/commands"
)

func main() {
	// A missing .env file is fine; its variables only seed VUECONV_* and OTEL_*.
	_ = godotenv.Load()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
