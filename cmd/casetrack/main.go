package main

import "github.com/custodia-labs/casetrack/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
