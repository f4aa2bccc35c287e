package reconcile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrConfirmationCancelled is returned by a Prompter when the user dismissed
// the question. The reconciler treats it as ChoiceKeep.
var ErrConfirmationCancelled = errors.New("confirmation cancelled")

// Choice is the user's answer to the update question.
type Choice int

const (
	// ChoiceKeep leaves the working copy untouched.
	ChoiceKeep Choice = iota
	// ChoiceReset overwrites the working copy with the new canonical source.
	ChoiceReset
)

func (c Choice) String() string {
	switch c {
	case ChoiceKeep:
		return "keep"
	case ChoiceReset:
		return "reset"
	default:
		return fmt.Sprintf("Choice(%d)", int(c))
	}
}

// ParseChoice parses "keep" or "reset".
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep":
		return ChoiceKeep, nil
	case "reset":
		return ChoiceReset, nil
	default:
		return ChoiceKeep, fmt.Errorf("invalid choice %q: must be keep or reset", s)
	}
}

// Answer is one selectable option of a Confirmation.
type Answer struct {
	Choice Choice
	Label  string
}

// Confirmation is the modal question shown when the published notebook
// changed under an existing working copy.
type Confirmation struct {
	Title   string
	Answers []Answer
}

// UpdateConfirmation is the question the reconciler asks.
var UpdateConfirmation = Confirmation{
	Title: "This notebook has been updated on the website, load it and overwrite any changes you may have made?",
	Answers: []Answer{
		{Choice: ChoiceKeep, Label: "Keep my changes"},
		{Choice: ChoiceReset, Label: "Reset my changes"},
	},
}

// Prompter asks the user to pick one of the confirmation's answers.
// Confirm blocks until the user answers; there is no timeout.
type Prompter interface {
	Confirm(ctx context.Context, c Confirmation) (Choice, error)
}

// StaticPrompter answers every confirmation with the same choice.
type StaticPrompter Choice

// Confirm returns the fixed choice.
func (p StaticPrompter) Confirm(context.Context, Confirmation) (Choice, error) {
	return Choice(p), nil
}

// TerminalPrompter asks on a line-oriented terminal.
//
// Answers are matched by number, by choice name, or by first letter.
// Empty input or end of input dismisses the question.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
}

// Confirm writes the question and reads answers until one is valid.
func (p *TerminalPrompter) Confirm(ctx context.Context, c Confirmation) (Choice, error) {
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.In)
	}

	fmt.Fprintln(p.Out, c.Title)
	for i, a := range c.Answers {
		fmt.Fprintf(p.Out, "  [%d] %s (%s)\n", i+1, a.Label, a.Choice)
	}

	for {
		if err := ctx.Err(); err != nil {
			return ChoiceKeep, err
		}
		fmt.Fprint(p.Out, "> ")
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return ChoiceKeep, fmt.Errorf("read answer: %w", err)
			}
			return ChoiceKeep, ErrConfirmationCancelled
		}

		line := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
		if line == "" {
			return ChoiceKeep, ErrConfirmationCancelled
		}
		if choice, ok := matchAnswer(c.Answers, line); ok {
			return choice, nil
		}
		fmt.Fprintf(p.Out, "unrecognised answer %q\n", line)
	}
}

func matchAnswer(answers []Answer, line string) (Choice, bool) {
	for i, a := range answers {
		name := a.Choice.String()
		if line == fmt.Sprint(i+1) || line == name || line == name[:1] {
			return a.Choice, true
		}
	}
	return ChoiceKeep, false
}
