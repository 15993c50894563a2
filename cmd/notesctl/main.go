package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hdnotes/api/cmd/notesctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "notesctl",
		Short: "Admin tool for the HD Notes API",
		Long:  "CLI tool for running migrations and checking external dependencies",
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewCheckCmd())
	rootCmd.AddCommand(commands.NewSendTestMailCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
