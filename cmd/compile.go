package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build the trees for a scene and display their statistics.
func BuildScene(ctx *cli.Context) error {
	setupLogging(ctx)

	start := time.Now()
	sc, world, _, err := loadWorld(ctx)
	if err != nil {
		return err
	}
	logger.Noticef(
		"built scene in %d ms (meshes: %d, triangles: %d, game objects: %d)",
		time.Since(start).Nanoseconds()/1e6, len(sc.Meshes), sc.TriangleCount(), world.Graph.Len(),
	)

	showWide := ctx.Bool("wide")
	describe := func(name string, tree *bvh.BVH) {
		var wideStats *bvh.WideStats
		if showWide {
			wide := bvh.NewWideBVH(tree)
			wide.MergeNodes()
			stats := wide.Stats()
			wideStats = &stats
		}
		logger.Noticef("%s tree statistics\n%s", name, bvh.StatsTable(tree.Stats(), wideStats))
	}

	if world.Static != nil {
		describe("static", world.Static)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Primitives", "Nodes", "Max depth", "SAH cost", "Build time"})
	rows := 0
	for index, tree := range world.MeshTrees {
		if tree == nil {
			continue
		}
		if ctx.Bool("verbose-meshes") {
			describe(sc.Meshes[index].Name, tree)
		}
		stats := tree.Stats()
		table.Append([]string{
			sc.Meshes[index].Name,
			fmt.Sprint(stats.Primitives),
			fmt.Sprint(stats.Nodes),
			fmt.Sprint(stats.MaxDepth),
			fmt.Sprintf("%.2f", stats.SAHCost),
			stats.BuildTime.String(),
		})
		rows++
	}
	if rows != 0 {
		table.Render()
		logger.Noticef("instanced mesh trees\n%s", buf.String())
	}

	return nil
}
