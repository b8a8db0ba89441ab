package bvh

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Stats describes the shape and estimated quality of a flat tree.
type Stats struct {
	Strategy   SplitStrategy
	Primitives int
	Nodes      int
	Interior   int
	Leaves     int
	MaxDepth   int

	MaxLeafSize int
	AvgLeafSize float32

	// Expected cost of a random ray query relative to the root; interior
	// visits and primitive tests both cost 1.
	SAHCost float32

	BuildTime time.Duration
	Memory    int
}

// Collect tree statistics.
func (t *BVH) Stats() Stats {
	s := Stats{
		Strategy:   t.opts.Strategy,
		Primitives: t.GetPrimitiveCount(),
		BuildTime:  t.buildTime,
		Memory:     sizeOf(t.nodes, t.indices),
	}
	if !t.canUse {
		return s
	}

	rootArea := t.nodes[0].Bounds.HalfArea()
	var walk func(idx int32, depth int)
	walk = func(idx int32, depth int) {
		node := &t.nodes[idx]
		s.Nodes++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}

		var relArea float32 = 1
		if rootArea > 0 {
			relArea = node.Bounds.HalfArea() / rootArea
		}

		if node.IsLeaf() {
			s.Leaves++
			if int(node.Meta.Count) > s.MaxLeafSize {
				s.MaxLeafSize = int(node.Meta.Count)
			}
			s.SAHCost += relArea * float32(node.Meta.Count)
			return
		}

		s.Interior++
		s.SAHCost += relArea
		walk(node.Meta.LeftFirst, depth+1)
		walk(node.Meta.LeftFirst+1, depth+1)
	}
	walk(0, 0)

	s.AvgLeafSize = float32(s.Primitives) / float32(s.Leaves)
	return s
}

// WideStats describes a wide tree.
type WideStats struct {
	Nodes      int
	UsedSlots  int
	LeafSlots  int
	Occupancy  float32
	MergeTime  time.Duration
	Memory     int
	FlatMemory int
}

// Collect wide tree statistics.
func (w *WideBVH) Stats() WideStats {
	s := WideStats{
		Nodes:      w.NodeCount(),
		MergeTime:  w.buildTime,
		Memory:     sizeOf(w.nodes[:w.poolPtr]),
		FlatMemory: sizeOf(w.flat.nodes),
	}
	for i := 0; i < s.Nodes; i++ {
		for slot := 0; slot < 4; slot++ {
			if !w.nodes[i].Valid(slot) {
				continue
			}
			s.UsedSlots++
			if w.nodes[i].Count[slot] >= 0 {
				s.LeafSlots++
			}
		}
	}
	if s.Nodes > 0 {
		s.Occupancy = float32(s.UsedSlots) / float32(4*s.Nodes)
	}
	return s
}

// Render flat and (optionally) wide tree statistics as a table.
func StatsTable(s Stats, ws *WideStats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Tree", "Metric", "Value"})
	table.Append([]string{"Flat", "Strategy", s.Strategy.String()})
	table.Append([]string{"", "Primitives", fmt.Sprint(s.Primitives)})
	table.Append([]string{"", "Nodes", fmt.Sprintf("%d (%d interior, %d leaves)", s.Nodes, s.Interior, s.Leaves)})
	table.Append([]string{"", "Max depth", fmt.Sprint(s.MaxDepth)})
	table.Append([]string{"", "Leaf size", fmt.Sprintf("avg %.2f, max %d", s.AvgLeafSize, s.MaxLeafSize)})
	table.Append([]string{"", "SAH cost", fmt.Sprintf("%.2f", s.SAHCost)})
	table.Append([]string{"", "Build time", s.BuildTime.String()})
	table.Append([]string{"", "Memory", fmtBytes(s.Memory)})
	if ws != nil {
		table.Append([]string{" ", " ", " "})
		table.Append([]string{"Wide", "Nodes", fmt.Sprint(ws.Nodes)})
		table.Append([]string{"", "Slots", fmt.Sprintf("%d used, %d leaves", ws.UsedSlots, ws.LeafSlots)})
		table.Append([]string{"", "Occupancy", fmt.Sprintf("%.1f%%", ws.Occupancy*100)})
		table.Append([]string{"", "Merge time", ws.MergeTime.String()})
		table.Append([]string{"", "Memory", fmtBytes(ws.Memory)})
	}
	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices.
func sizeOf(items ...interface{}) int {
	total := 0
	for _, item := range items {
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}
		total += int(v.Type().Elem().Size()) * v.Len()
	}
	return total
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtBytes(total int) string {
	var out string
	switch {
	case total < 1e3:
		out = fmt.Sprintf("%3d bytes", total)
	case total < 1e6:
		out = fmt.Sprintf("%3.1f kb", float32(total)/1e3)
	default:
		out = fmt.Sprintf("%5.1f mb", float32(total)/1e6)
	}
	return strings.TrimLeft(out, " ")
}
