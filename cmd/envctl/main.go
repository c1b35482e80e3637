package main

import (
	"fmt"
	"os"
)

func main() {
	c := newCLI(openServices)
	err := c.rootCmd().Execute()
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
