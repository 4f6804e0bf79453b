// cob is the CLI for a decentralized issue tracker built on replicated,
// signed change graphs.
package main

import (
	"fmt"
	"os"

	"cob/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
