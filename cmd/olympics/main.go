// Command olympics runs the Olympic results ETL and its operator tasks.
package main

import (
	"fmt"
	"os"

	"olympics/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "olympics: %v\n", err)
		os.Exit(1)
	}
}
