// Package main is the entry point for the unpin CLI.
package main

import "unpin.dev/pkg/unpin/cmd"

func main() {
	cmd.Execute()
}
