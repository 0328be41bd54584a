package gpu

import (
	"fmt"
	"strings"
)

// Criterion decides whether the option at index i, named name, is acceptable.
type Criterion func(i int, name string) bool

// First accepts the first option.
func First(i int, _ string) bool {
	return i == 0
}

// NameContains accepts options whose name contains substr, ignoring case.
func NameContains(substr string) Criterion {
	substr = strings.ToLower(substr)
	return func(_ int, name string) bool {
		return strings.Contains(strings.ToLower(name), substr)
	}
}

// Choose returns the index of the first name satisfying criterion.
func Choose(names []string, criterion Criterion) (int, error) {
	for i, name := range names {
		if criterion(i, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w (options: %s)", ErrNoMatch, strings.Join(names, ", "))
}

// Chooser selects one option when Initialize is called without autoSelect.
// kind is "platform" or "device".
type Chooser interface {
	Choose(kind string, options []string) (int, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(kind string, options []string) (int, error)

// Choose implements Chooser.
func (f ChooserFunc) Choose(kind string, options []string) (int, error) {
	return f(kind, options)
}

// CriterionChooser selects platforms and devices with fixed criteria.
// A nil criterion selects the first option.
type CriterionChooser struct {
	Platform Criterion
	Device   Criterion
}

// Choose implements Chooser.
func (c CriterionChooser) Choose(kind string, options []string) (int, error) {
	criterion := c.Platform
	if kind == KindDevice {
		criterion = c.Device
	}
	if criterion == nil {
		criterion = First
	}
	i, err := Choose(options, criterion)
	if err != nil {
		return -1, fmt.Errorf("%s: %w", kind, err)
	}
	return i, nil
}

// Selection kinds passed to Chooser.
const (
	KindPlatform = "platform"
	KindDevice   = "device"
)
