package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	colourInfo  = "\033[94m"
	colourError = "\033[91m"
	colourReset = "\033[0m"
)

// consoleNotifier prints user-facing messages as single coloured lines.
type consoleNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	colour bool
}

func newConsoleNotifier(out io.Writer, colour bool) *consoleNotifier {
	return &consoleNotifier{out: out, colour: colour}
}

func (n *consoleNotifier) Info(msg string) {
	log.Debug().Str("notice", msg).Msg("Info shown to user")
	n.print(colourInfo, msg)
}

func (n *consoleNotifier) Error(msg string) {
	log.Debug().Str("notice", msg).Msg("Error shown to user")
	n.print(colourError, msg)
}

func (n *consoleNotifier) print(colour, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.colour {
		fmt.Fprintf(n.out, "%s%s%s\n", colour, msg, colourReset)
		return
	}
	fmt.Fprintln(n.out, msg)
}
