package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoInput is returned when standard input ends before an answer
var ErrNoInput = errors.New("no input")

// Prompter asks questions on a line-oriented input
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading answers from in and writing
// questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// String asks label and returns the trimmed answer, which may be empty
func (p *Prompter) String(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", Cyan(label))
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Int asks label and parses a non-negative integer answer
func (p *Prompter) Int(label string) (int, error) {
	answer, err := p.String(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a valid count", answer)
	}
	return n, nil
}

// Class lists the known classes and asks for one. An empty answer is an
// error; names outside the list are accepted so new folders can be used.
func (p *Prompter) Class(known []string) (string, error) {
	if len(known) > 0 {
		fmt.Fprintf(p.out, "Available classes: %s\n", strings.Join(known, ", "))
	}
	answer, err := p.String("Enter the class folder name")
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", errors.New("class name is required")
	}
	return answer, nil
}
