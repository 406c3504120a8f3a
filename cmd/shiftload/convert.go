package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shiftload/pkg/config"
	"shiftload/pkg/engine"
	"shiftload/pkg/parser"
	"shiftload/pkg/report"
	"shiftload/pkg/session"
)

type convertOptions struct {
	roster      string
	template    string
	out         string
	format      string
	reportPath  string
	interactive bool
}

func newConvertCmd(a *app) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Fill the import template from a roster workbook",
		Example: `  shiftload convert --roster turnos.xlsx --template plantilla.csv --out carga.csv
  shiftload convert --roster turnos.xlsx --template plantilla.xlsx --out carga.xlsx --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && strings.EqualFold(filepath.Ext(opts.out), ".xlsx") {
				opts.format = "xlsx"
			}
			return runConvert(a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.roster, "roster", "", "roster workbook (.xlsx)")
	cmd.Flags().StringVar(&opts.template, "template", "", "import template (.xlsx, .xls or delimited text)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: csv or xlsx (default from config)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write the diagnostics report as JSON to this file")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "ask about ambiguous and unresolved names instead of guessing")
	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runConvert(a *app, opts *convertOptions) error {
	outOpts := outputOptions(a.cfg.Output)
	if opts.format != "" {
		outOpts.Format = strings.ToLower(opts.format)
	}
	switch outOpts.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("unsupported output format %q (use csv or xlsx)", outOpts.Format)
	}

	in, tpl, err := loadInput(a, opts.roster, opts.template)
	if err != nil {
		return err
	}
	a.logger.Info("inputs loaded",
		zap.String("roster", opts.roster),
		zap.String("template", opts.template),
		zap.String("templateFormat", tpl.Format),
		zap.Int("columns", len(tpl.Columns)),
		zap.Int("rosterRows", len(in.Grid.Rows)),
	)

	pipeline := engine.NewPipeline(engine.OptionsFromConfig(a.cfg), a.logger)

	var result *engine.Result
	if opts.interactive {
		result, err = runInteractive(a, in, pipeline)
	} else {
		result, err = pipeline.Run(in)
	}
	if err != nil {
		return err
	}

	if err := parser.WriteOutput(opts.out, outOpts, result.Headers, result.Values()); err != nil {
		return err
	}
	a.logger.Info("output written", zap.String("path", opts.out), zap.Int("rows", len(result.Rows)))

	summary := report.Build(result)
	if opts.reportPath != "" {
		var buf bytes.Buffer
		if err := summary.WriteJSON(&buf); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := parser.WriteFileAtomic(opts.reportPath, buf.Bytes()); err != nil {
			return fmt.Errorf("write report %s: %w", opts.reportPath, err)
		}
	}

	printSummary(a.out, summary, opts.out)
	return nil
}

// loadInput reads both files completely before any work starts, so a structural
// problem stops the run before the output file exists.
func loadInput(a *app, rosterPath, templatePath string) (engine.Input, *parser.Template, error) {
	f, err := os.Open(rosterPath)
	if err != nil {
		return engine.Input{}, nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	wb, err := parser.ReadRosterWorkbook(f, a.cfg.Workbook)
	if err != nil {
		return engine.Input{}, nil, err
	}

	data, err := os.ReadFile(templatePath)
	if err != nil {
		return engine.Input{}, nil, fmt.Errorf("read template: %w", err)
	}
	tpl, err := parser.LoadTemplate(data, filepath.Base(templatePath))
	if err != nil {
		return engine.Input{}, nil, err
	}
	for _, w := range tpl.Warnings {
		a.logger.Warn("template parse warning", zap.Int("row", w.Row), zap.String("message", w.Message))
	}

	return engine.Input{
		Directory: wb.Directory,
		Grid:      wb.Grid,
		Codes:     wb.Codes,
		Columns:   tpl.Columns,
	}, tpl, nil
}

func runInteractive(a *app, in engine.Input, pipeline *engine.Pipeline) (*engine.Result, error) {
	s, err := session.New(in, pipeline, a.logger)
	if err != nil {
		return nil, err
	}
	state, err := s.Resolve()
	if err != nil {
		return nil, err
	}

	if state == session.StateAwaitingCorrection {
		prompt := newLinePrompt(a.in, a.out)
		pending := s.Pending()
		fmt.Fprintf(a.out, "%d names need a decision.\n", len(pending))
		for i, p := range pending {
			fmt.Fprintf(a.out, "\n[%d/%d] ", i+1, len(pending))
			choice, err := prompt.Ask(p)
			if err != nil {
				return nil, err
			}
			if choice.Skip {
				err = s.Skip(p.Raw)
			} else {
				err = s.Correct(p.Raw, choice.ID)
			}
			if err != nil {
				return nil, err
			}
		}
		if err := s.Confirm(); err != nil {
			return nil, err
		}
	}
	return s.Export()
}

func outputOptions(cfg config.Output) parser.OutputOptions {
	return parser.OutputOptions{
		Format:    strings.ToLower(cfg.Format),
		Delimiter: cfg.DelimiterRune(),
		Encoding:  cfg.Encoding,
		Sheet:     cfg.Sheet,
	}
}
