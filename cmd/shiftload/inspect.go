package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"shiftload/pkg/engine"
	"shiftload/pkg/parser"
	"shiftload/pkg/report"
	"shiftload/pkg/schema"
)

func newInspectCmd(a *app) *cobra.Command {
	var templatePath, rosterPath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show how the template columns will be filled",
		Long: `inspect reads the template and prints the kind chosen for every column.
With --roster the date columns are matched against the roster's dates and the
workbook's sheets are summarized; without it every date-like header counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(a, templatePath, rosterPath)
		},
	}
	cmd.Flags().StringVar(&templatePath, "template", "", "import template (.xlsx, .xls or delimited text)")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "roster workbook (.xlsx)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func runInspect(a *app, templatePath, rosterPath string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	tpl, err := parser.LoadTemplate(data, filepath.Base(templatePath))
	if err != nil {
		return err
	}

	var dates []string
	if rosterPath != "" {
		in, _, err := loadInput(a, rosterPath, templatePath)
		if err != nil {
			return err
		}
		dates = rosterDates(in.Grid)
		printRoster(a, in, dates)
	} else {
		for _, col := range tpl.Columns {
			if key := schema.NormalizeDate(col.ProbeValue()); key.IsDate() {
				dates = append(dates, key.Value)
			}
		}
	}

	pipeline := engine.NewPipeline(engine.OptionsFromConfig(a.cfg), a.logger)
	classes := pipeline.Rules().Classify(tpl.Columns, dates)

	fmt.Fprintln(a.out, titleStyle.Render(fmt.Sprintf("Template %s (%s), %d columns", tpl.Source, tpl.Format, len(tpl.Columns))))
	t := newTable("#", "Header", "Kind", "Date")
	for i, c := range classes {
		t.Row(strconv.Itoa(i+1), c.Header, string(c.Kind), c.DateKey)
	}
	fmt.Fprintln(a.out, t)
	for _, w := range tpl.Warnings {
		fmt.Fprintf(a.out, "%s row %d: %s\n", severityLabel(report.SeverityWarning), w.Row, w.Message)
	}
	return nil
}

func rosterDates(grid schema.RosterGrid) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, h := range grid.DateHeaders {
		key := schema.NormalizeDate(h)
		if key.IsNone() || seen[key.Value] {
			continue
		}
		seen[key.Value] = true
		dates = append(dates, key.Value)
	}
	return dates
}

func printRoster(a *app, in engine.Input, dates []string) {
	index := engine.BuildDirectoryIndex(in.Directory)
	codes, issues := engine.BuildCodeTable(in.Codes, schema.NewShiftNormalizer(a.cfg.Shifts.RestKeyword))

	fmt.Fprintln(a.out, titleStyle.Render("Roster"))
	fmt.Fprintf(a.out, "Grid: %d rows, %d names, %d date columns\n", len(in.Grid.Rows), len(in.Names()), len(dates))
	fmt.Fprintf(a.out, "Directory: %d entries, %d usable, %d without id, %d repeated ids\n",
		index.Stats.TotalRecords, index.Stats.Indexed, index.Stats.MissingID, index.Stats.DuplicateIDs)
	fmt.Fprintf(a.out, "Codification: %d shift keys\n", codes.Len())
	for _, issue := range issues {
		fmt.Fprintf(a.out, "%s codification row %d: %s\n", severityLabel(report.SeverityWarning), issue.SourceRow, issue.Reason)
	}
	fmt.Fprintln(a.out)
}
