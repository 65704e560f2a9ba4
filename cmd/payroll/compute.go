/*
compute.go - offline period computation

Reads a rates document and a period input file, runs the engine, and writes
the full result bundle as JSON to stdout. No database involved; this is the
pipeline payroll consultants run against exported timesheet files.

INPUT FILE SCHEMA (YAML):
  worker_id: w-1
  period:
    start: "2025-03-01"
    end: "2025-03-31"
  intervals:
    - id: i-1
      project: P1
      start: "2025-03-05T07:00:00Z"
      end: "2025-03-05T16:00:00Z"
      source: "timesheet#123"
      standby: false
      dispatch: false
  allowances:
    - id: a-1
      project: P1
      date: "2025-03-05"
      category: MILERSATTNING
      quantity: 42
      unit: km
*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
)

var (
	computeRatesPath string
	computeInputPath string
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute a period from a rates file and an input file",
	Args:  cobra.NoArgs,
	RunE:  runCompute,
}

func init() {
	computeCmd.Flags().StringVar(&computeRatesPath, "rates", "", "Rate document (YAML)")
	computeCmd.Flags().StringVar(&computeInputPath, "input", "", "Period input file (YAML)")
	computeCmd.MarkFlagRequired("rates")
	computeCmd.MarkFlagRequired("input")
}

// periodInput is the YAML schema of the --input file.
type periodInput struct {
	WorkerID string `yaml:"worker_id"`
	Period   struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"period"`
	Intervals []struct {
		ID       string `yaml:"id"`
		Project  string `yaml:"project"`
		Start    string `yaml:"start"`
		End      string `yaml:"end"`
		Source   string `yaml:"source"`
		Standby  bool   `yaml:"standby"`
		Dispatch bool   `yaml:"dispatch"`
	} `yaml:"intervals"`
	Allowances []struct {
		ID       string  `yaml:"id"`
		Project  string  `yaml:"project"`
		Date     string  `yaml:"date"`
		Category string  `yaml:"category"`
		Quantity float64 `yaml:"quantity"`
		Unit     string  `yaml:"unit"`
		Source   string  `yaml:"source"`
		Comment  string  `yaml:"comment"`
	} `yaml:"allowances"`
}

func runCompute(cmd *cobra.Command, args []string) error {
	ratesDoc, err := os.ReadFile(computeRatesPath)
	if err != nil {
		return err
	}
	rates, err := factory.ParseRateTableYAML(ratesDoc)
	if err != nil {
		return err
	}

	inputDoc, err := os.ReadFile(computeInputPath)
	if err != nil {
		return err
	}
	var in periodInput
	if err := yaml.Unmarshal(inputDoc, &in); err != nil {
		return fmt.Errorf("failed to parse input file: %w", err)
	}

	input, err := buildComputeInput(in, *rates)
	if err != nil {
		return err
	}

	result, err := payroll.NewEngine().Compute(input)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	for _, sk := range result.Skipped {
		fmt.Fprintf(os.Stderr, "skipped interval %s: %s\n", sk.IntervalID, sk.Reason)
	}
	return nil
}

func buildComputeInput(in periodInput, rates payroll.RateTable) (payroll.ComputeInput, error) {
	start, err := payroll.ParseDate(in.Period.Start)
	if err != nil {
		return payroll.ComputeInput{}, fmt.Errorf("period start: %w", err)
	}
	end, err := payroll.ParseDate(in.Period.End)
	if err != nil {
		return payroll.ComputeInput{}, fmt.Errorf("period end: %w", err)
	}

	input := payroll.ComputeInput{
		WorkerID:    payroll.WorkerID(in.WorkerID),
		Period:      payroll.Period{Start: start, End: end},
		Rates:       rates,
		GeneratedAt: time.Now().UTC(),
	}

	for _, iv := range in.Intervals {
		from, err := time.Parse(time.RFC3339, iv.Start)
		if err != nil {
			return payroll.ComputeInput{}, fmt.Errorf("interval %s start: %w", iv.ID, err)
		}
		to, err := time.Parse(time.RFC3339, iv.End)
		if err != nil {
			return payroll.ComputeInput{}, fmt.Errorf("interval %s end: %w", iv.ID, err)
		}
		input.Intervals = append(input.Intervals, payroll.WorkedInterval{
			ID:        iv.ID,
			WorkerID:  input.WorkerID,
			ProjectID: payroll.ProjectID(iv.Project),
			Start:     from,
			End:       to,
			SourceTag: iv.Source,
			Standby:   iv.Standby,
			Dispatch:  iv.Dispatch,
		})
	}

	for _, al := range in.Allowances {
		date, err := payroll.ParseDate(al.Date)
		if err != nil {
			return payroll.ComputeInput{}, fmt.Errorf("allowance %s date: %w", al.ID, err)
		}
		input.Allowances = append(input.Allowances, payroll.Allowance{
			ID:        al.ID,
			WorkerID:  input.WorkerID,
			ProjectID: payroll.ProjectID(al.Project),
			Date:      date,
			Category:  payroll.Category(al.Category),
			Quantity:  decimal.NewFromFloat(al.Quantity),
			Unit:      payroll.Unit(al.Unit),
			SourceTag: al.Source,
			Comment:   al.Comment,
		})
	}

	return input, nil
}
