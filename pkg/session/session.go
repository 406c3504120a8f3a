package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiftload/pkg/engine"
)

// State is a step of the correction workflow.
type State string

const (
	StateLoaded             State = "loaded"
	StateAwaitingCorrection State = "awaiting-correction"
	StateReadyToExport      State = "ready-to-export"
)

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrPendingNames      = errors.New("names still need a decision")
)

// DefaultSuggestionCutoff is the ratio a directory name needs to be preselected.
const DefaultSuggestionCutoff = 0.4

// PendingName is one name waiting for a human decision.
type PendingName struct {
	Raw        string             `json:"raw"`
	Kind       engine.OutcomeKind `json:"kind"`
	Candidates []string           `json:"candidates,omitempty"`
	// Suggestion is the identifier to preselect, empty when nothing is close.
	Suggestion string   `json:"suggestion,omitempty"`
	Options    []Option `json:"options"`
	// Answered is set once Correct or Skip has been called for the name.
	Answered bool `json:"answered"`
}

// Option is one selectable directory entry.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Session carries one interactive run from loaded files to an exportable result.
type Session struct {
	ID         string
	state      State
	input      engine.Input
	pipeline   *engine.Pipeline
	resolver   *engine.Resolver
	resolution *engine.Resolution
	pending    []string
	answered   map[string]bool
	logger     *zap.Logger
}

// New validates input and returns a session in StateLoaded.
func New(input engine.Input, pipeline *engine.Pipeline, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver, err := pipeline.Prepare(input)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:       uuid.NewString(),
		state:    StateLoaded,
		input:    input,
		pipeline: pipeline,
		resolver: resolver,
		answered: make(map[string]bool),
	}
	s.logger = logger.With(zap.String("session", s.ID))
	s.logger.Info("session loaded", zap.Int("names", len(input.Names())))
	return s, nil
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Resolve runs strict resolution: only unique token matches are accepted, the rest
// wait for a decision.
func (s *Session) Resolve() (State, error) {
	if s.state != StateLoaded {
		return s.state, s.transitionError("resolve")
	}
	s.resolution = s.resolver.ResolveStrict(s.input.Names())
	s.pending = s.resolution.Pending()
	if len(s.pending) > 0 {
		s.state = StateAwaitingCorrection
	} else {
		s.state = StateReadyToExport
	}
	s.logger.Info("names resolved", zap.Int("pending", len(s.pending)), zap.String("state", string(s.state)))
	return s.state, nil
}

// Pending lists the names waiting for a decision, in roster order.
func (s *Session) Pending() []PendingName {
	if s.resolution == nil {
		return nil
	}
	index := s.resolver.Index()
	labels := index.Options()
	options := make([]Option, len(labels))
	for i, e := range index.Entries {
		options[i] = Option{ID: e.ID, Label: labels[i]}
	}

	cutoff := s.pipeline.Options().SuggestionCutoff
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultSuggestionCutoff
	}

	out := make([]PendingName, 0, len(s.pending))
	for _, name := range s.pending {
		o, _ := s.resolution.Get(name)
		p := PendingName{
			Raw:        name,
			Kind:       o.Kind,
			Candidates: o.Candidates,
			Options:    options,
			Answered:   s.answered[name],
		}
		if s.answered[name] && o.Resolved() {
			p.Suggestion = o.ID
		} else if e, _, ok := s.resolver.Suggest(name, cutoff); ok {
			p.Suggestion = e.ID
		}
		out = append(out, p)
	}
	return out
}

// Correct assigns id to a pending name. A name can be answered again until the
// session is confirmed.
func (s *Session) Correct(name, id string) error {
	if err := s.checkPending("correct", name); err != nil {
		return err
	}
	if err := s.resolution.Correct(name, id, s.resolver.Index()); err != nil {
		return err
	}
	s.answered[name] = true
	s.logger.Debug("name corrected", zap.String("name", name), zap.String("id", id))
	return nil
}

// Skip leaves a pending name out of the output.
func (s *Session) Skip(name string) error {
	if err := s.checkPending("skip", name); err != nil {
		return err
	}
	if err := s.resolution.Skip(name); err != nil {
		return err
	}
	s.answered[name] = true
	s.logger.Debug("name skipped", zap.String("name", name))
	return nil
}

// Apply records a batch of decisions, stopping at the first rejected one.
func (s *Session) Apply(corrections []engine.Correction) error {
	for _, c := range corrections {
		var err error
		if c.Skip {
			err = s.Skip(c.Name)
		} else {
			err = s.Correct(c.Name, c.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Unanswered lists the pending names without a decision yet.
func (s *Session) Unanswered() []string {
	var out []string
	for _, name := range s.pending {
		if !s.answered[name] {
			out = append(out, name)
		}
	}
	return out
}

// Confirm moves to StateReadyToExport once every pending name has an answer.
func (s *Session) Confirm() error {
	if s.state != StateAwaitingCorrection {
		return s.transitionError("confirm")
	}
	if missing := s.Unanswered(); len(missing) > 0 {
		return fmt.Errorf("confirm: %w: %q", ErrPendingNames, missing)
	}
	s.state = StateReadyToExport
	s.logger.Info("corrections confirmed", zap.Int("answered", len(s.answered)))
	return nil
}

// Export runs the rest of the pipeline with the final resolution.
func (s *Session) Export() (*engine.Result, error) {
	if s.state != StateReadyToExport {
		return nil, s.transitionError("export")
	}
	return s.pipeline.Finish(s.input, s.resolver.Index(), s.resolution), nil
}

func (s *Session) checkPending(op, name string) error {
	if s.state != StateAwaitingCorrection {
		return s.transitionError(op)
	}
	for _, p := range s.pending {
		if p == name {
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w", op, name, engine.ErrUnknownName)
}

func (s *Session) transitionError(op string) error {
	return fmt.Errorf("%s in state %s: %w", op, s.state, ErrInvalidTransition)
}

// Snapshot is the JSON view of a session handed to front ends.
type Snapshot struct {
	ID      string               `json:"id"`
	State   State                `json:"state"`
	Pending []PendingName        `json:"pending"`
	Stats   *engine.ResolveStats `json:"stats,omitempty"`
	Index   engine.IndexStats    `json:"index"`
}

// Snapshot captures the current state and pending names.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:      s.ID,
		State:   s.state,
		Pending: s.Pending(),
		Index:   s.resolver.Index().Stats,
	}
	if snap.Pending == nil {
		snap.Pending = []PendingName{}
	}
	if s.resolution != nil {
		stats := s.resolution.Stats()
		snap.Stats = &stats
	}
	return snap
}

// MarshalJSON encodes the session as its snapshot.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}
