package main

import "github.com/custodia-labs/skema-cli/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
