// Package main provides the mosaic CLI.
package main

import "github.com/mesh-intelligence/mosaic/internal/cli"

func main() {
	cli.Execute()
}
