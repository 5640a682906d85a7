package main

import "github.com/openjobspec/ojs-hello-world/internal/cli"

func main() {
	cli.Execute()
}
