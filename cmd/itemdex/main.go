package main

import "github.com/mesh-intelligence/itemdex/internal/cli"

func main() {
	cli.Execute()
}
