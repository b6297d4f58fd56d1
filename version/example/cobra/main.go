// Demonstrates wiring the version package into a cobra command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lgc202/odsc-go/version"
)

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:   "odsc",
		Short: "model deployment inference client",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if jsonOutput {
				s, err := info.ToJSONIndent()
				if err != nil {
					return err
				}
				fmt.Println(s)
				return nil
			}
			fmt.Println(info.Text())
			return nil
		},
	}
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
