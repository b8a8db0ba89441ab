package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/achilleasa/polaris-rt/asset/reader"
	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Get the flags shared by all commands that build trees.
func BuildFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "strategy, s",
			Value: bvh.BinnedSAH.String(),
			Usage: "split strategy (central, sah, binned)",
		},
		cli.IntFlag{
			Name:  "bins",
			Value: bvh.DefaultBins,
			Usage: "number of bins for the binned strategy",
		},
		cli.IntFlag{
			Name:  "max-leaf",
			Value: bvh.DefaultMaxLeafPrims,
			Usage: "nodes with fewer primitives become leaves",
		},
		cli.BoolFlag{
			Name:  "split-on-equal",
			Usage: "split nodes even if the split cost equals the leaf cost",
		},
		cli.IntFlag{
			Name:  "threads, t",
			Value: 0,
			Usage: "build thread budget (0 = number of cores)",
		},
	}
}

// Parse build options from the command flags.
func buildOptions(ctx *cli.Context) (bvh.Options, *bvh.BuildContext, error) {
	opts := bvh.DefaultOptions()

	strategy, err := bvh.ParseSplitStrategy(ctx.String("strategy"))
	if err != nil {
		return opts, nil, err
	}
	opts.Strategy = strategy
	opts.Bins = ctx.Int("bins")
	opts.MaxLeafPrims = ctx.Int("max-leaf")
	if ctx.Bool("split-on-equal") {
		opts.Acceptance = bvh.CheaperOrEqual
	}

	threads := ctx.Int("threads")
	if threads <= 0 {
		threads = bvh.CoreCount()
	}
	return opts, bvh.NewBuildContext(threads), nil
}

// Read the scene passed as the first command argument and build its trees.
func loadWorld(ctx *cli.Context) (*reader.Scene, *reader.World, *bvh.BuildContext, error) {
	if ctx.NArg() != 1 {
		return nil, nil, nil, errors.New("missing scene file argument")
	}

	opts, bc, err := buildOptions(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return nil, nil, nil, err
	}

	world, err := sc.Build(opts, bc)
	if err != nil {
		return nil, nil, nil, err
	}
	return sc, world, bc, nil
}

// Create a camera using the scene camera settings.
func sceneCamera(sc *reader.Scene) *tracer.Camera {
	camera := tracer.NewCamera(sc.Camera.FOV)
	camera.Up = sc.Camera.Up
	camera.Look(sc.Camera.Eye, sc.Camera.Look)
	return camera
}

// Display scene contents.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Triangles", "Instances", "Bounds"})
	instances := make([]int, len(sc.Meshes))
	for _, node := range sc.Nodes {
		if node.Mesh != reader.NoMesh {
			instances[node.Mesh]++
		}
	}
	for index, mesh := range sc.Meshes {
		bounds := mesh.Bounds()
		table.Append([]string{
			mesh.Name,
			fmt.Sprint(len(mesh.Triangles)),
			fmt.Sprint(instances[index]),
			fmt.Sprintf("%v - %v", bounds.Min, bounds.Max),
		})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprint(sc.TriangleCount()), fmt.Sprint(len(sc.Nodes)), ""})
	table.Render()

	buf.WriteString("\n")
	buf.WriteString(nodeTree(sc))

	logger.Noticef("scene information:\n%s", buf.String())
	return nil
}

// Render the node hierarchy as an indented list.
func nodeTree(sc *reader.Scene) string {
	var buf bytes.Buffer
	depth := make([]int, len(sc.Nodes))
	for index, node := range sc.Nodes {
		if node.Parent >= 0 {
			depth[index] = depth[node.Parent] + 1
		}
		kind := "group"
		if node.Mesh != reader.NoMesh {
			kind = "mesh " + sc.Meshes[node.Mesh].Name
		}
		fmt.Fprintf(&buf, "%s- %s (%s) @ %v\n", strings.Repeat("  ", depth[index]), node.Name, kind, node.Local.Translation())
	}
	return buf.String()
}
