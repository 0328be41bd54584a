package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// promptChooser lists the options as "1.) name" and reads a number until a
// valid one is entered.
type promptChooser struct {
	in  *bufio.Scanner
	out io.Writer
}

// Choose implements gpu.Chooser.
func (p *promptChooser) Choose(kind string, options []string) (int, error) {
	fmt.Fprintf(p.out, "Select a %s:\n", kind)
	for i, o := range options {
		fmt.Fprintf(p.out, "%d.) %s\n", i+1, o)
	}
	for {
		fmt.Fprint(p.out, "> ")
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return -1, err
			}
			return -1, fmt.Errorf("%s selection: %w", kind, io.ErrUnexpectedEOF)
		}
		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", len(options))
	}
}
