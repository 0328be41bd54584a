// Package kernels ships the matrix kernel programs and the Reader abstraction
// used to load them.
//
// Two dialects are embedded: matrices.cl (OpenCL C) and matrices.wgsl (WGSL).
// Both expose the same six entry points with the same argument order.
package kernels

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

// Kernel program file names.
const (
	OpenCLFile = "matrices.cl"
	WGSLFile   = "matrices.wgsl"
)

// ErrNotFound is returned when a Reader has no resource under the given name.
var ErrNotFound = errors.New("kernels: resource not found")

//go:embed matrices.cl matrices.wgsl
var embedded embed.FS

// Reader supplies kernel program text by resource name.
type Reader interface {
	ReadText(name string) (string, error)
}

type fsReader struct {
	fsys fs.FS
}

// ReadText implements Reader.
func (r fsReader) ReadText(name string) (string, error) {
	b, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("kernels: read %s: %w", name, err)
	}
	return string(b), nil
}

// Embedded returns a Reader over the programs compiled into the binary.
func Embedded() Reader {
	return fsReader{fsys: embedded}
}

// Dir returns a Reader over kernel files in an on-disk directory.
func Dir(path string) Reader {
	return fsReader{fsys: os.DirFS(path)}
}

// FileFor returns the program file name for a kernel language.
func FileFor(lang driver.Language) (string, error) {
	switch lang {
	case driver.LanguageOpenCL:
		return OpenCLFile, nil
	case driver.LanguageWGSL:
		return WGSLFile, nil
	default:
		return "", fmt.Errorf("%w: no program for language %q", ErrNotFound, lang)
	}
}

// SourceFor reads the program matching lang from r.
func SourceFor(r Reader, lang driver.Language) (string, error) {
	name, err := FileFor(lang)
	if err != nil {
		return "", err
	}
	return r.ReadText(name)
}
