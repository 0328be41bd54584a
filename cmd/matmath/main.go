// Command matmath runs matrix kernels on compute devices and checks them
// against the CPU path.
//
// Usage:
//
//	matmath devices
//	matmath selftest --driver opencl
//	matmath bench --size 1500
package main

import (
	"context"
	"os"
	"os/signal"
)

const version = "v0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
