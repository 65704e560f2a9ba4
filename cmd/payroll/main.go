/*
main.go - payroll CLI entry point

PURPOSE:
  Command-line access to the wage-type engine for batch and offline use:
  compute a period from config files without running the server, render a
  stored result in an export format, or start the HTTP service.

COMMANDS:
  compute   Classify and price a period from a rates file and an input file
  export    Render a computed result JSON as csv, pdf, xlsx, fortnox, visma
  serve     Start the HTTP API server

EXAMPLES:
  payroll compute --rates rates.yaml --input march.yaml > result.json
  payroll export --result result.json --format pdf --out statement.pdf
  payroll serve --port 8080 --db ./data/payroll.db
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Wage-type classification and compliance engine",
	Long: `payroll computes Swedish construction wage-type ledgers from worked
intervals and allowance records, offline from config files or as an HTTP
service backed by SQLite.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}
