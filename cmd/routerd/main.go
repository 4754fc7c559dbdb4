package main

import "github.com/halcyonex/routerd/internal/cli"

func main() {
	cli.Execute()
}
