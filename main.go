// hotticket is an issue tracker server and its command-line client.
package main

import (
	"fmt"
	"os"

	"hotticket/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
