package main

import "github.com/openclaw/agentlink/internal/cli"

func main() {
	cli.Execute()
}
