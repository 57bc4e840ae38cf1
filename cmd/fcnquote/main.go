package main

import (
	"os"

	"github.com/wonny/fcnquote/cmd/fcnquote/commands"
)

// main is the entry point for the FCN quote CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/fcnquote [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
