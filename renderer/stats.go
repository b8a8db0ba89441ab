package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type TracerStat struct {
	// The tracer id.
	Id string

	// True if this is the primary tracer
	IsPrimary bool

	// The block height and the percentage of total frame area it represents.
	BlockH       uint32
	FramePercent float32

	// Render time for assigned block
	RenderTime time.Duration

	// Primary rays traced and average traversal steps per ray.
	Rays     uint64
	AvgSteps float32
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Total render time for entire frame.
	RenderTime time.Duration

	// Number of rendered frames.
	FrameCount uint32

	// Fraction of pixels whose primary ray hit something and fraction of
	// shadow rays that were occluded.
	Coverage      float32
	OccludedRatio float32

	// Dynamic tree rebuild activity.
	Driver DriverStats
}

// Render frame statistics as a table.
func (stats FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Primary", "Block height", "% of frame", "Avg steps", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%t", stat.IsPrimary),
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%.1f", stat.AvgSteps),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "", "", "TOTAL", stats.RenderTime.String()})
	table.Render()

	fmt.Fprintf(
		&buf, "frame: %d, coverage: %02.1f %%, occluded: %02.1f %%, rebuilds: %d, swaps: %d, skipped: %d, active slot: %d\n",
		stats.FrameCount, stats.Coverage*100, stats.OccludedRatio*100,
		stats.Driver.Rebuilds, stats.Driver.Swaps, stats.Driver.Skipped, stats.Driver.ActiveSlot,
	)
	return buf.String()
}
