//go:build !opencl

package opencl

import (
	"fmt"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

func init() {
	driver.Register(DriverName, func() (driver.Driver, error) {
		return nil, fmt.Errorf("%w: opencl (build with -tags opencl)", driver.ErrUnavailable)
	})
}
