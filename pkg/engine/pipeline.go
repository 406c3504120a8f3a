package engine

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"shiftload/pkg/config"
	"shiftload/pkg/schema"
)

// ErrNoTemplateHeaders is returned when the template has no usable header.
var ErrNoTemplateHeaders = errors.New("template has no column headers")

// Input is everything one run reads: the three roster sheets and the template.
type Input struct {
	Directory []schema.DirectoryEntry
	Grid      schema.RosterGrid
	Codes     []schema.CodeRow
	Columns   []schema.TemplateColumn
}

// Names returns the distinct non-blank roster names in row order.
func (in Input) Names() []string {
	seen := make(map[string]bool, len(in.Grid.Rows))
	var names []string
	for _, row := range in.Grid.Rows {
		name := strings.TrimSpace(row.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func (in Input) validate() error {
	for _, col := range in.Columns {
		if strings.TrimSpace(col.Header) != "" {
			return nil
		}
	}
	return ErrNoTemplateHeaders
}

// Options tunes a pipeline.
type Options struct {
	FuzzyCutoff      float64
	SuggestionCutoff float64
	RestKeyword      string
	Keywords         schema.ColumnKeywords
}

// OptionsFromConfig copies the matching, shift and template settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FuzzyCutoff:      cfg.Matching.FuzzyCutoff,
		SuggestionCutoff: cfg.Matching.SuggestionCutoff,
		RestKeyword:      cfg.Shifts.RestKeyword,
		Keywords:         cfg.Template.Keywords,
	}
}

// Pipeline turns an Input into output rows: resolve, reshape, code, project.
type Pipeline struct {
	opts       Options
	normalizer schema.ShiftNormalizer
	rules      ColumnRules
	logger     *zap.Logger
}

// NewPipeline returns a pipeline for opts. Missing keyword lists fall back to
// schema.DefaultColumnKeywords.
func NewPipeline(opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := schema.DefaultColumnKeywords()
	if len(opts.Keywords.Identifier) == 0 {
		opts.Keywords.Identifier = defaults.Identifier
	}
	if len(opts.Keywords.Name) == 0 {
		opts.Keywords.Name = defaults.Name
	}
	if len(opts.Keywords.Unit) == 0 {
		opts.Keywords.Unit = defaults.Unit
	}
	if len(opts.Keywords.Manager) == 0 {
		opts.Keywords.Manager = defaults.Manager
	}
	return &Pipeline{
		opts:       opts,
		normalizer: schema.NewShiftNormalizer(opts.RestKeyword),
		rules:      NewColumnRules(opts.Keywords),
		logger:     logger,
	}
}

// Options returns the options the pipeline was built with.
func (p *Pipeline) Options() Options { return p.opts }

// Rules returns the column rule table.
func (p *Pipeline) Rules() ColumnRules { return p.rules }

// Result is the outcome of a run.
type Result struct {
	Headers    []string        `json:"headers"`
	Rows       []OutputRow     `json:"rows"`
	Resolution *Resolution     `json:"resolution"`
	Reshape    *ReshapeResult  `json:"reshape"`
	Unmapped   []string        `json:"unmapped"`
	CodeIssues []CodeRowIssue  `json:"codeIssues,omitempty"`
	Classes    []ColumnClass   `json:"classes"`
	Index      *DirectoryIndex `json:"-"`
	Codes      *CodeTable      `json:"-"`
}

// Values returns the rows as plain string slices for the output writer.
func (r *Result) Values() [][]string {
	values := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		values[i] = row.Values
	}
	return values
}

// Prepare checks the input and returns a resolver over its directory.
func (p *Pipeline) Prepare(in Input) (*Resolver, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	index := BuildDirectoryIndex(in.Directory)
	p.logger.Info("directory indexed",
		zap.Int("entries", index.Stats.TotalRecords),
		zap.Int("indexed", index.Stats.Indexed),
		zap.Int("missingId", index.Stats.MissingID),
		zap.Int("duplicateIds", index.Stats.DuplicateIDs),
	)
	if index.Stats.Indexed == 0 {
		p.logger.Warn("directory has no entry with an identifier; every name will be unresolved")
	}
	return NewResolver(index, p.opts.FuzzyCutoff, p.logger), nil
}

// Run resolves names automatically, fuzzy tier included, and finishes the run.
func (p *Pipeline) Run(in Input) (*Result, error) {
	resolver, err := p.Prepare(in)
	if err != nil {
		return nil, err
	}
	return p.Finish(in, resolver.Index(), resolver.Resolve(in.Names())), nil
}

// Finish reshapes, codes and projects with a resolution that is already final.
// Names still ambiguous or unresolved are left out of the rows.
func (p *Pipeline) Finish(in Input, index *DirectoryIndex, resolution *Resolution) *Result {
	stats := resolution.Stats()
	p.logger.Info("names resolved",
		zap.Int("total", stats.Total),
		zap.Int("exact", stats.Exact),
		zap.Int("fuzzy", stats.Fuzzy),
		zap.Int("corrected", stats.Corrected),
		zap.Int("ambiguous", stats.Ambiguous),
		zap.Int("unresolved", stats.Unresolved),
		zap.Int("skipped", stats.Skipped),
	)

	reshaped := Reshape(in.Grid, resolution, p.normalizer)
	p.logger.Info("roster reshaped",
		zap.Int("records", len(reshaped.Records)),
		zap.Int("dates", len(reshaped.Dates)),
		zap.Int("excluded", len(reshaped.Excluded)),
		zap.Int("duplicates", len(reshaped.Duplicates)),
		zap.Int("formatErrors", len(reshaped.FormatErrors)),
	)

	codes, issues := BuildCodeTable(in.Codes, p.normalizer)
	unmapped := codes.Apply(reshaped.Records)
	if len(unmapped) > 0 {
		p.logger.Warn("shift keys without code", zap.Strings("keys", unmapped))
	}

	rows := p.rules.Project(in.Columns, reshaped, index)
	headers := make([]string, len(in.Columns))
	for i, col := range in.Columns {
		headers[i] = col.Header
	}
	p.logger.Info("template projected", zap.Int("rows", len(rows)), zap.Int("columns", len(headers)))

	return &Result{
		Headers:    headers,
		Rows:       rows,
		Resolution: resolution,
		Reshape:    reshaped,
		Unmapped:   unmapped,
		CodeIssues: issues,
		Classes:    p.rules.Classify(in.Columns, reshaped.Dates),
		Index:      index,
		Codes:      codes,
	}
}
