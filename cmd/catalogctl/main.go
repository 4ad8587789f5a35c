// Package main is the entry point for the catalogctl operator CLI.
package main

import "github.com/mind-engage/neurocare/internal/cli"

func main() {
	cli.Execute()
}
