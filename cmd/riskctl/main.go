// Command riskctl runs portfolio risk analyses from the command line, using
// the same configuration, price cache and analyzer as the HTTP service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp(os.Stdout, os.Stderr)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
