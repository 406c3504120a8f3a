package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"shiftload/pkg/engine"
	"shiftload/pkg/session"
)

var errInputClosed = errors.New("input closed before every name was decided")

const maxFilterResults = 10

type choice struct {
	ID   string
	Skip bool
}

// linePrompt asks for one decision per pending name on a plain line-based terminal.
type linePrompt struct {
	r *bufio.Reader
	w io.Writer
}

func newLinePrompt(r io.Reader, w io.Writer) *linePrompt {
	return &linePrompt{r: bufio.NewReader(r), w: w}
}

// Ask shows every directory option and reads answers until one is valid:
// Enter takes the suggestion, a number picks that option, "s" skips the name and
// any other text filters the options.
func (p *linePrompt) Ask(name session.PendingName) (choice, error) {
	labels := make([]string, len(name.Options))
	for i, o := range name.Options {
		labels[i] = o.Label
	}

	fmt.Fprintf(p.w, "%q %s\n", name.Raw, describe(name))
	for i, o := range name.Options {
		p.printOption(i, o, name.Suggestion)
	}

	for {
		fmt.Fprint(p.w, "Number, Enter for the suggestion, s to skip, or text to filter: ")
		line, err := p.r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				return choice{}, errInputClosed
			}
			return choice{}, err
		}
		answer := strings.TrimSpace(line)

		switch {
		case answer == "":
			if name.Suggestion != "" {
				return choice{ID: name.Suggestion}, nil
			}
			fmt.Fprintln(p.w, "There is no suggestion for this name.")
		case strings.EqualFold(answer, "s"):
			return choice{Skip: true}, nil
		default:
			if n, err := strconv.Atoi(answer); err == nil {
				if n >= 1 && n <= len(name.Options) {
					return choice{ID: name.Options[n-1].ID}, nil
				}
				fmt.Fprintf(p.w, "Choose a number between 1 and %d.\n", len(name.Options))
				continue
			}
			matches := fuzzy.Find(answer, labels)
			if len(matches) == 0 {
				fmt.Fprintf(p.w, "No entry matches %q.\n", answer)
				continue
			}
			for i, m := range matches {
				if i == maxFilterResults {
					fmt.Fprintf(p.w, "  ... %d more\n", len(matches)-maxFilterResults)
					break
				}
				p.printOption(m.Index, name.Options[m.Index], name.Suggestion)
			}
		}
	}
}

func (p *linePrompt) printOption(i int, o session.Option, suggestion string) {
	mark := ""
	if o.ID == suggestion {
		mark = "  <- suggested"
	}
	fmt.Fprintf(p.w, "  %3d) %s%s\n", i+1, o.Label, mark)
}

func describe(name session.PendingName) string {
	if name.Kind == engine.OutcomeAmbiguous {
		return "matches several employees: " + strings.Join(name.Candidates, ", ")
	}
	return "has no match in the directory"
}
