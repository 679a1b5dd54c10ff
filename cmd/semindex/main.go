package main

import "semindex/internal/cli"

func main() {
	cli.Execute()
}
