// Command salonctl is the stylist's terminal client. It talks to the API
// when the backend reports db mode and falls back to a local store
// otherwise.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
