package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"nsg-cli/internal/cli"
)

func main() {
	// Optional .env for NSG_* overrides; absence is fine.
	_ = godotenv.Load()

	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
