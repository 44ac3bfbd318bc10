// Package main is the entry point for the etherpkt frame decoder.
package main

import (
	"fmt"
	"os"

	"github.com/lijingwei9060/ether-packet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
