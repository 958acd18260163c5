// Package main is the entry point for the backendcheck CLI.
package main

import "github.com/probekit/backendcheck/internal/cli"

func main() {
	cli.Execute()
}
