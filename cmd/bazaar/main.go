package main

import (
	"os"

	"github.com/wonny/bazaar/cmd/bazaar/commands"
)

// main is the entry point for the bazaar CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/bazaar [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
