//go:build !windows

package webgpu

import (
	"fmt"

	"github.com/born-ml/matmath/internal/gpu/driver"
)

func init() {
	driver.Register(DriverName, func() (driver.Driver, error) {
		return nil, fmt.Errorf("%w: webgpu is only built on windows", driver.ErrUnavailable)
	})
}
