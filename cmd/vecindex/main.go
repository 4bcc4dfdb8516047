package main

import "vecindex/internal/cli"

func main() {
	cli.Execute()
}
