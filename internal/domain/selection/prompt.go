package selection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ErrNoChoices is returned when the prompter is given an empty list.
var ErrNoChoices = errors.New("nothing to choose from")

type line struct {
	text string
	err  error
}

// Prompter renders a numbered list and reads the user's choice.
//
// Input is read by a single background goroutine that is started on the
// first Choose, so a cancelled prompt does not lose the next answer.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan line
	err   error
}

// NewPrompter creates a prompter reading from in and writing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Choose shows labels under title and returns the chosen label.
// The user may answer with the 1-based index or the exact label.
// Invalid answers are re-prompted until input ends or ctx is done.
func (p *Prompter) Choose(ctx context.Context, title string, labels []string) (string, error) {
	if len(labels) == 0 {
		return "", ErrNoChoices
	}

	fmt.Fprintf(p.out, "%s\n", title)
	for i, l := range labels {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, l)
	}

	for {
		fmt.Fprint(p.out, "> ")
		text, err := p.readLine(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			fmt.Fprintln(p.out)
			return "", err
		}
		answer := strings.TrimSpace(text)

		if answer != "" {
			if label, ok := resolve(labels, answer); ok {
				return label, nil
			}
			fmt.Fprintf(p.out, "No such entry: %q\n", answer)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
	}
}

// readLine waits for the next input line or for ctx to be done.
// A read error is sticky: later calls return it without reading.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.once.Do(p.startReader)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-p.lines:
		if l.err != nil {
			p.err = l.err
		}
		return l.text, l.err
	}
}

func (p *Prompter) startReader() {
	p.lines = make(chan line)
	go func() {
		for {
			text, err := p.in.ReadString('\n')
			p.lines <- line{text: text, err: err}
			if err != nil {
				return
			}
		}
	}()
}

func resolve(labels []string, answer string) (string, bool) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(labels) {
			return labels[n-1], true
		}
	}
	for _, l := range labels {
		if l == answer {
			return l, true
		}
	}
	return "", false
}
