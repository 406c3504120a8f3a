package engine

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shiftload/pkg/schema"
)

// OutcomeKind says how a roster name was (or was not) tied to an identifier.
type OutcomeKind string

const (
	OutcomeExact      OutcomeKind = "exact"
	OutcomeFuzzy      OutcomeKind = "fuzzy"
	OutcomeCorrected  OutcomeKind = "corrected"
	OutcomeAmbiguous  OutcomeKind = "ambiguous"
	OutcomeUnresolved OutcomeKind = "unresolved"
	OutcomeSkipped    OutcomeKind = "skipped"
)

// DefaultFuzzyCutoff is the similarity a misspelt name needs to be accepted.
const DefaultFuzzyCutoff = 0.7

var (
	ErrUnknownName       = errors.New("name is not part of the roster")
	ErrUnknownIdentifier = errors.New("identifier is not in the directory")
)

// Outcome is the resolution of one distinct raw roster name.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	ID   string      `json:"id,omitempty"`
	// Candidates holds the competing identifiers of an ambiguous name.
	Candidates []string `json:"candidates,omitempty"`
	// MatchedName is the normalized directory name that was matched.
	MatchedName string  `json:"matchedName,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// Resolved reports whether the outcome carries an identifier usable for output.
func (o Outcome) Resolved() bool {
	switch o.Kind {
	case OutcomeExact, OutcomeFuzzy, OutcomeCorrected:
		return o.ID != ""
	}
	return false
}

// NeedsDecision reports whether a human has to pick the identifier.
func (o Outcome) NeedsDecision() bool {
	return o.Kind == OutcomeAmbiguous || o.Kind == OutcomeUnresolved
}

// Resolution maps every distinct raw roster name to its outcome.
type Resolution struct {
	Outcomes map[string]Outcome `json:"outcomes"`
	// Order lists the raw names in first-seen order.
	Order []string `json:"order"`
}

// ResolveStats counts outcomes by kind.
type ResolveStats struct {
	Total      int `json:"total"`
	Exact      int `json:"exact"`
	Fuzzy      int `json:"fuzzy"`
	Corrected  int `json:"corrected"`
	Ambiguous  int `json:"ambiguous"`
	Unresolved int `json:"unresolved"`
	Skipped    int `json:"skipped"`
}

func newResolution() *Resolution {
	return &Resolution{Outcomes: make(map[string]Outcome)}
}

func (r *Resolution) set(name string, o Outcome) {
	if _, exists := r.Outcomes[name]; !exists {
		r.Order = append(r.Order, name)
	}
	r.Outcomes[name] = o
}

// Get returns the outcome for a raw name.
func (r *Resolution) Get(name string) (Outcome, bool) {
	o, ok := r.Outcomes[name]
	return o, ok
}

// Pending lists the names that are ambiguous or unresolved, in first-seen order.
func (r *Resolution) Pending() []string {
	var pending []string
	for _, name := range r.Order {
		if r.Outcomes[name].NeedsDecision() {
			pending = append(pending, name)
		}
	}
	return pending
}

// Correct records a human choice of identifier for name.
func (r *Resolution) Correct(name, id string, index *DirectoryIndex) error {
	prev, ok := r.Outcomes[name]
	if !ok {
		return fmt.Errorf("correct %q: %w", name, ErrUnknownName)
	}
	if _, ok := index.Lookup(id); !ok {
		return fmt.Errorf("correct %q with %q: %w", name, id, ErrUnknownIdentifier)
	}
	r.Outcomes[name] = Outcome{Kind: OutcomeCorrected, ID: id, Candidates: prev.Candidates}
	return nil
}

// Skip records that a human chose to leave name out of the output.
func (r *Resolution) Skip(name string) error {
	prev, ok := r.Outcomes[name]
	if !ok {
		return fmt.Errorf("skip %q: %w", name, ErrUnknownName)
	}
	r.Outcomes[name] = Outcome{Kind: OutcomeSkipped, Candidates: prev.Candidates}
	return nil
}

// Correction is a human decision for one pending name: either an identifier or a
// skip.
type Correction struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
	Skip bool   `json:"skip,omitempty"`
}

// Apply merges corrections in order. It stops at the first rejected correction;
// the ones before it stay applied.
func (r *Resolution) Apply(corrections []Correction, index *DirectoryIndex) error {
	for _, c := range corrections {
		var err error
		if c.Skip {
			err = r.Skip(c.Name)
		} else {
			err = r.Correct(c.Name, c.ID, index)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Stats counts outcomes by kind.
func (r *Resolution) Stats() ResolveStats {
	var s ResolveStats
	for _, o := range r.Outcomes {
		s.Total++
		switch o.Kind {
		case OutcomeExact:
			s.Exact++
		case OutcomeFuzzy:
			s.Fuzzy++
		case OutcomeCorrected:
			s.Corrected++
		case OutcomeAmbiguous:
			s.Ambiguous++
		case OutcomeUnresolved:
			s.Unresolved++
		case OutcomeSkipped:
			s.Skipped++
		}
	}
	return s
}

// Resolver matches roster names against the directory.
type Resolver struct {
	index       *DirectoryIndex
	fuzzyCutoff float64
	logger      *zap.Logger
}

// NewResolver returns a resolver over index. A cutoff outside (0, 1] falls back to
// DefaultFuzzyCutoff; a nil logger is replaced with a no-op one.
func NewResolver(index *DirectoryIndex, fuzzyCutoff float64, logger *zap.Logger) *Resolver {
	if fuzzyCutoff <= 0 || fuzzyCutoff > 1 {
		fuzzyCutoff = DefaultFuzzyCutoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{index: index, fuzzyCutoff: fuzzyCutoff, logger: logger}
}

// Index returns the directory index the resolver matches against.
func (r *Resolver) Index() *DirectoryIndex { return r.index }

// Resolve runs the automated cascade for each distinct non-blank name:
//  1. Token containment: every token of the name appears in the directory name
//  2. One identifier -> exact; several -> ambiguous, never a guess
//  3. No containment match -> closest name by ratio, accepted at the fuzzy cutoff
//  4. Nothing close enough -> unresolved
func (r *Resolver) Resolve(names []string) *Resolution {
	return r.resolve(names, true)
}

// ResolveStrict is Resolve without the fuzzy tier: anything that is not a unique
// containment match is left for a human decision.
func (r *Resolver) ResolveStrict(names []string) *Resolution {
	return r.resolve(names, false)
}

func (r *Resolver) resolve(names []string, fuzzy bool) *Resolution {
	res := newResolution()
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, done := res.Outcomes[name]; done {
			continue
		}
		outcome := r.resolveOne(name, fuzzy)
		res.set(name, outcome)
		r.logger.Debug("name resolved",
			zap.String("name", name),
			zap.String("outcome", string(outcome.Kind)),
			zap.String("id", outcome.ID),
			zap.Strings("candidates", outcome.Candidates),
		)
	}
	return res
}

func (r *Resolver) resolveOne(name string, fuzzy bool) Outcome {
	tokens := schema.Tokens(name)
	if len(tokens) == 0 {
		return Outcome{Kind: OutcomeUnresolved}
	}

	var matchedNames []string
	var ids []string
	seen := make(map[string]bool)
	for _, candidate := range r.index.Names {
		if !containsAll(candidate, tokens) {
			continue
		}
		matchedNames = append(matchedNames, candidate)
		for _, id := range r.index.idsForName(candidate) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	switch {
	case len(ids) == 1:
		return Outcome{Kind: OutcomeExact, ID: ids[0], MatchedName: matchedNames[0], Score: 1}
	case len(ids) > 1:
		return Outcome{Kind: OutcomeAmbiguous, Candidates: ids}
	}

	if !fuzzy {
		return Outcome{Kind: OutcomeUnresolved}
	}

	best, score, ok := closestName(schema.NormalizeText(name), r.index.Names, r.fuzzyCutoff)
	if !ok {
		return Outcome{Kind: OutcomeUnresolved}
	}
	bestIDs := r.index.idsForName(best)
	if len(bestIDs) > 1 {
		return Outcome{Kind: OutcomeAmbiguous, Candidates: bestIDs, MatchedName: best, Score: score}
	}
	return Outcome{Kind: OutcomeFuzzy, ID: bestIDs[0], MatchedName: best, Score: score}
}

// Suggest returns the directory entry closest to name when its ratio reaches
// cutoff. It never changes a resolution; the correction prompt uses it to preselect
// an option.
func (r *Resolver) Suggest(name string, cutoff float64) (*schema.DirectoryEntry, float64, bool) {
	best, score, ok := closestName(schema.NormalizeText(name), r.index.Names, cutoff)
	if !ok {
		return nil, 0, false
	}
	return r.index.ByName[best][0], score, true
}

func containsAll(candidate string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(candidate, t) {
			return false
		}
	}
	return true
}
