// GeMeCraP - genome-guided metabolite pathway inference
package main

import (
	"fmt"
	"os"

	"github.com/gemecrap/gemecrap/cmd/gemecrap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
