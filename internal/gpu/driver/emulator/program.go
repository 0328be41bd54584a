package emulator

import (
	"fmt"
	"strings"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

// parseProgram checks that source is structurally sound and returns its entry
// point names in declaration order.
func parseProgram(source string, lang driver.Language) ([]string, error) {
	switch lang {
	case driver.LanguageOpenCL, driver.LanguageWGSL:
	default:
		return nil, &driver.BuildError{Log: fmt.Sprintf("unsupported language %q", lang)}
	}
	if err := checkBalance(driver.StripComments(source)); err != nil {
		return nil, err
	}
	return driver.EntryPoints(source, lang), nil
}

// checkBalance reports the first unbalanced bracket as a build error with a
// compiler-style line number.
func checkBalance(code string) error {
	pairs := map[rune]rune{')': '(', '}': '{', ']': '['}
	var stack []rune
	var lines []int

	line := 1
	for _, r := range code {
		switch r {
		case '\n':
			line++
		case '(', '{', '[':
			stack = append(stack, r)
			lines = append(lines, line)
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return &driver.BuildError{Log: fmt.Sprintf("<source>:%d: error: unexpected '%c'", line, r)}
			}
			stack = stack[:len(stack)-1]
			lines = lines[:len(lines)-1]
		}
	}
	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return &driver.BuildError{Log: fmt.Sprintf("<source>:%d: error: unclosed '%c' at end of input", lines[len(lines)-1], open)}
	}
	return nil
}

type program struct {
	drv      *Driver
	entries  []string
	released bool
}

func (p *program) CreateKernel(name string) (driver.Kernel, error) {
	if p.released {
		return nil, driver.ErrReleased
	}
	if err := p.drv.fault(OpCreateKernel); err != nil {
		return nil, err
	}
	found := false
	for _, e := range p.entries {
		if e == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q (program has %s)", driver.ErrNoEntryPoint, name, strings.Join(p.entries, ", "))
	}
	p.drv.count(func(s *Counters) { s.Kernels++ })
	return &kernel{drv: p.drv, name: name, args: make(map[int]any)}, nil
}

func (p *program) Release() error {
	if p.released {
		return driver.ErrReleased
	}
	if err := p.drv.fault(OpRelease); err != nil {
		return err
	}
	p.released = true
	p.drv.count(func(s *Counters) { s.ProgramsReleased++ })
	return nil
}

type kernel struct {
	drv      *Driver
	name     string
	args     map[int]any
	released bool
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) SetArgBuffer(index int, b driver.Buffer) error {
	if err := k.setArg(index); err != nil {
		return err
	}
	eb, ok := b.(*buffer)
	if !ok || eb.released {
		return fmt.Errorf("%w: argument %d of %s is not a live buffer", driver.ErrInvalidArg, index, k.name)
	}
	k.args[index] = eb
	return nil
}

func (k *kernel) SetArgUint32(index int, v uint32) error {
	if err := k.setArg(index); err != nil {
		return err
	}
	k.args[index] = v
	return nil
}

func (k *kernel) setArg(index int) error {
	if k.released {
		return driver.ErrReleased
	}
	if index < 0 {
		return fmt.Errorf("%w: argument index %d", driver.ErrInvalidArg, index)
	}
	return k.drv.fault(OpSetArg)
}

func (k *kernel) Release() error {
	if k.released {
		return driver.ErrReleased
	}
	if err := k.drv.fault(OpRelease); err != nil {
		return err
	}
	k.released = true
	k.args = nil
	k.drv.count(func(s *Counters) { s.KernelsReleased++ })
	return nil
}

// run executes the kernel over the global index space.
func (k *kernel) run(global []int) (err error) {
	if k.released {
		return driver.ErrReleased
	}
	emu, ok := emulations[k.name]
	if !ok {
		return fmt.Errorf("emulator: no emulation for entry point %q", k.name)
	}
	if len(global) == 0 || len(global) > 2 {
		return fmt.Errorf("%w: %d-D dispatch", driver.ErrInvalidArg, len(global))
	}

	bufs := make([][]float32, emu.buffers)
	for i := range bufs {
		b, ok := k.args[i].(*buffer)
		if !ok {
			return fmt.Errorf("%w: %s argument %d must be a buffer", driver.ErrInvalidArg, k.name, i)
		}
		if b.released {
			return fmt.Errorf("%s argument %d: %w", k.name, i, driver.ErrReleased)
		}
		bufs[i] = b.data
	}
	scalars := make([]uint32, emu.scalars)
	for i := range scalars {
		v, ok := k.args[emu.buffers+i].(uint32)
		if !ok {
			return fmt.Errorf("%w: %s argument %d must be a uint", driver.ErrInvalidArg, k.name, emu.buffers+i)
		}
		scalars[i] = v
	}

	// An out-of-bounds access on a device is undefined; here it is a fault.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emulator: %s faulted: %v", k.name, r)
		}
	}()

	gx, gy := global[0], 1
	if len(global) == 2 {
		gy = global[1]
	}
	for x := 0; x < gx; x++ {
		for y := 0; y < gy; y++ {
			emu.item(bufs, scalars, x, y)
		}
	}
	return nil
}
