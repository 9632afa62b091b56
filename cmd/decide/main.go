package main

// Decide a batch of activities from the command line:
//   go run ./cmd/decide -in activities.json
//   cat activities.json | go run ./cmd/decide -format json
//
// The input is either {"inputs":[...]} or a bare array of flat answer objects.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"sourcing-backend/internal/bootstrap"
	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/export"
	"sourcing-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	inPath := flag.String("in", "", "Path to the JSON batch (default: stdin)")
	format := flag.String("format", "table", "Output format: table or json")
	xlsxPath := flag.String("xlsx", "", "Also write the results workbook to this path (optional)")
	provider := flag.String("provider", cfg.DecisionProvider, "Decision provider: local or remote")
	flag.Parse()

	raw, err := readInput(*inPath)
	if err != nil {
		exitErr(err.Error())
	}
	inputs, err := parseBatch(raw)
	if err != nil {
		exitErr(err.Error())
	}

	cfg.DecisionProvider = strings.ToLower(strings.TrimSpace(*provider))
	decider, err := bootstrap.BuildDecider(cfg)
	if err != nil {
		exitErr(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	results, err := decider.Decide(ctx, inputs)
	if err != nil {
		var rejection *decision.RejectionError
		if errors.As(err, &rejection) && len(rejection.Problems) > 0 {
			for _, p := range rejection.Problems {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", p.Field, p.Issue)
			}
		}
		exitErr(fmt.Sprintf("decide: %v", err))
	}

	switch *format {
	case "json":
		err = writeJSON(os.Stdout, results)
	default:
		err = writeTable(os.Stdout, results)
	}
	if err != nil {
		exitErr(err.Error())
	}

	if strings.TrimSpace(*xlsxPath) != "" {
		if err := writeWorkbook(ctx, *xlsxPath, results); err != nil {
			exitErr(err.Error())
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *xlsxPath)
	}
}

func readInput(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// parseBatch accepts {"inputs":[...]} or a bare array.
func parseBatch(raw []byte) ([]decision.Answers, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("input is empty")
	}
	var inputs []decision.Answers
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, fmt.Errorf("parse input: %w", err)
		}
	} else {
		var wrapped struct {
			Inputs []decision.Answers `json:"inputs"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("parse input: %w", err)
		}
		inputs = wrapped.Inputs
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("input has no activities")
	}
	return inputs, nil
}

func writeJSON(w io.Writer, results []decision.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"results": results})
}

func writeTable(w io.Writer, results []decision.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tACTIVITY\tOUTCOME\tRECOMMENDATION")
	for i, r := range results {
		name := r.Answers.Name(fmt.Sprintf("Activity %d", i+1))
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, name, r.Outcome, r.Outcome.Description())
	}
	return tw.Flush()
}

func writeWorkbook(ctx context.Context, path string, results []decision.Result) error {
	rows := make([]export.Row, 0, len(results))
	for _, r := range results {
		row := export.Row{Answers: r.Answers, HasResult: true, Outcome: r.Outcome}
		if r.Timestamp != nil {
			row.Timestamp = *r.Timestamp
		}
		rows = append(rows, row)
	}
	doc, err := export.NewXLSX().Export(ctx, rows)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
