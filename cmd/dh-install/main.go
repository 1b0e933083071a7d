package main

import "dh-release/internal/cli"

func main() {
	cli.Execute()
}
