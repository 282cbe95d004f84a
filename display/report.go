// Package display renders run reports for the terminal.
package display

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/logger"
	"github.com/teranos/shimgen/shimgen"
	"github.com/teranos/shimgen/shimgen/lifecycle"
	"github.com/teranos/shimgen/shimgen/spec"
)

// PlanLines lists what a dry run would do, one line per action.
// Skips are left out.
func PlanLines(r *shimgen.Report) []string {
	var lines []string
	for _, item := range r.Plan {
		switch item.Op {
		case lifecycle.OpWrite:
			lines = append(lines, "WRITE "+item.Path)
		case lifecycle.OpMove:
			lines = append(lines, "MOVE "+item.From+" -> "+item.Path)
		case lifecycle.OpDelete:
			lines = append(lines, "DELETE "+item.Path)
		}
	}
	return lines
}

// SummaryRows are the counts shown after every pass
func SummaryRows(r *shimgen.Report) [][]string {
	return [][]string{
		{"Scanned", strconv.Itoa(r.Scanned)},
		{"Annotated", strconv.Itoa(r.Annotated)},
		{"Written", strconv.Itoa(r.Written)},
		{"Skipped", strconv.Itoa(r.Skipped)},
		{"Moves", strconv.Itoa(r.Moves)},
		{"Deletes", strconv.Itoa(r.Deletes)},
		{"Failed", strconv.Itoa(r.Failed)},
	}
}

// PrintReport writes the dry-run plan, when there is one, and the summary table
func PrintReport(w io.Writer, r *shimgen.Report, verbosity int) error {
	if r.DryRun && logger.ShouldOutput(verbosity, logger.OutputPlan) {
		fmt.Fprintln(w, pterm.Warning.Sprint("DRY RUN: no files were changed"))
		for _, line := range PlanLines(r) {
			fmt.Fprintln(w, "  [DRY-RUN] "+line)
		}
		fmt.Fprintln(w)
	}

	data := pterm.TableData{{"", "Files"}}
	data = append(data, SummaryRows(r)...)
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, table)

	if logger.ShouldOutput(verbosity, logger.OutputRunInfo) {
		fmt.Fprintln(w, pterm.Info.Sprintf("run %s finished in %dms", r.RunID, r.DurationMS))
	}
	switch {
	case r.Failed > 0:
		fmt.Fprintln(w, pterm.Error.Sprintf("%d file operations failed; see the log above", r.Failed))
	case r.Annotated == 0:
		fmt.Fprintln(w, pterm.Info.Sprint("No script types found"))
	default:
		fmt.Fprintln(w, pterm.Success.Sprintf("%d shims up to date", r.Annotated))
	}
	return nil
}

// PrintError writes a failed run's error. Validation problems are listed
// one per line with their hints.
func PrintError(w io.Writer, err error) {
	var verrs spec.ValidationErrors
	if errors.As(err, &verrs) {
		fmt.Fprintln(w, pterm.Error.Sprintf("%d script validation errors", len(verrs)))
		for _, e := range verrs {
			fmt.Fprintln(w, "  "+e.Error())
			if e.Hint != "" {
				fmt.Fprintln(w, "    hint: "+e.Hint)
			}
		}
		return
	}
	fmt.Fprintln(w, pterm.Error.Sprint(err.Error()))
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintln(w, "  hint: "+hint)
	}
}
