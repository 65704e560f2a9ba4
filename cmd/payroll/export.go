/*
export.go - render a computed result

Reads a result JSON file (as written by `payroll compute` or fetched from
GET /api/payroll/runs/{id}) and renders it in an export format. Binary
formats require --out; text formats default to stdout.
*/
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/payroll"
)

var (
	exportResultPath string
	exportFormat     string
	exportOutPath    string
	exportWorkerName string
	exportPersonalNr string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a computed result as csv, pdf, xlsx, fortnox or visma",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportResultPath, "result", "", "Result JSON file")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, pdf, xlsx, fortnox, visma")
	exportCmd.Flags().StringVar(&exportOutPath, "out", "", "Output file (default stdout; required for pdf/xlsx)")
	exportCmd.Flags().StringVar(&exportWorkerName, "worker-name", "", "Worker name printed on the statement")
	exportCmd.Flags().StringVar(&exportPersonalNr, "personal-number", "", "Personal number, masked before rendering")
	exportCmd.MarkFlagRequired("result")
}

func runExport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(exportResultPath)
	if err != nil {
		return err
	}
	var result payroll.PayrollResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to parse result file: %w", err)
	}

	var data []byte
	switch exportFormat {
	case "csv":
		data, err = export.StatementCSV(&result)
	case "pdf":
		if exportOutPath == "" {
			return fmt.Errorf("--out is required for pdf")
		}
		data, err = export.StatementPDF(&result, exportWorkerName, exportPersonalNr)
	case "xlsx":
		if exportOutPath == "" {
			return fmt.Errorf("--out is required for xlsx")
		}
		data, err = export.StatementXLSX(&result)
	case "fortnox", "visma":
		lines := export.AccountingExport(export.AccountingSystem(exportFormat), &result)
		data, err = json.MarshalIndent(lines, "", "  ")
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}
	if err != nil {
		return err
	}

	if exportOutPath == "" {
		fmt.Print(string(data))
		return nil
	}
	return os.WriteFile(exportOutPath, data, 0o644)
}
