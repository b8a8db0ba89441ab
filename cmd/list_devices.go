package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/tracer"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/urfave/cli"
)

// Create count CPU tracers. If count is <= 0 one tracer per logical core
// is created.
func newCPUTracers(count int) []tracer.Tracer {
	if count <= 0 {
		count = bvh.CoreCount()
	}
	tracers := make([]tracer.Tracer, count)
	for index := range tracers {
		tracers[index] = tracer.NewCPUTracer(fmt.Sprintf("cpu-%02d", index), 1.0)
	}
	return tracers
}

// List the processors available for tracing and tree construction.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer

	infoList, err := cpu.Info()
	if err != nil {
		return err
	}
	physical, err := cpu.Counts(false)
	if err != nil {
		physical = len(infoList)
	}

	buf.WriteString(fmt.Sprintf("\nSystem provides %d logical core(s), %d physical core(s):\n\n", bvh.CoreCount(), physical))
	for index, info := range infoList {
		buf.WriteString(fmt.Sprintf("  [CPU %02d]\n    Name   %s\n    Vendor %s\n    Cores  %d\n    Speed  %4.0f MHz\n\n", index, info.ModelName, info.VendorID, info.Cores, info.Mhz))
	}
	buf.WriteString(fmt.Sprintf("Rendering uses %d CPU tracer(s) by default\n", bvh.CoreCount()))

	logger.Notice(buf.String())
	return nil
}
