// Package input provides cancellable interactive prompts.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrInputAborted signals that interactive input was interrupted (typically
// via Ctrl+C causing context cancellation and/or stdin closure).
var ErrInputAborted = errors.New("input aborted")

// IsAborted reports whether an operation was aborted by the user, by
// checking for ErrInputAborted and context cancellation.
func IsAborted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInputAborted) || errors.Is(err, context.Canceled)
}

// MapInputError normalizes common stdin errors (EOF/closed fd) into ErrInputAborted.
func MapInputError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return ErrInputAborted
	}
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "use of closed file") ||
		strings.Contains(errStr, "bad file descriptor") ||
		strings.Contains(errStr, "file already closed") {
		return ErrInputAborted
	}
	return err
}

// ReadLineWithContext reads a single line and supports cancellation. On ctx
// cancellation or stdin closure it returns ErrInputAborted.
func ReadLineWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line: line, err: MapInputError(err)}
	}()
	select {
	case <-ctx.Done():
		return "", ErrInputAborted
	case res := <-ch:
		return res.line, res.err
	}
}

// IsTerminal reports whether stdin is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm prints a yes/no question on w and reads the answer from reader.
// Only an explicit "y"/"yes" confirms; everything else (including an
// aborted read) declines.
func Confirm(ctx context.Context, w io.Writer, reader *bufio.Reader, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", question)

	line, err := ReadLineWithContext(ctx, reader)
	if err != nil {
		if IsAborted(err) {
			return false, ErrInputAborted
		}
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
