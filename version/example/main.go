// Demonstrates the version package with plain flags.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lgc202/odsc-go/version"
)

var (
	showVersion = flag.Bool("version", false, "print version information")
	showJSON    = flag.Bool("json", false, "print version information as JSON")
)

func main() {
	flag.Parse()

	if *showVersion {
		info := version.Get()
		if *showJSON {
			s, err := info.ToJSONIndent()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(s)
		} else {
			fmt.Println(info.Text())
		}
		os.Exit(0)
	}

	fmt.Printf("odsc-go %s\n", version.Get().String())
}
