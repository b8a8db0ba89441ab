package main

import (
	"fmt"
	"os"
	"time"

	"github.com/achilleasa/polaris-rt/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	renderFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "frames, f",
			Value: 1,
			Usage: "number of frames to render",
		},
		cli.IntFlag{
			Name:  "fps",
			Value: 30,
			Usage: "frame rate used for advancing animations",
		},
		cli.IntFlag{
			Name:  "tracers",
			Value: 0,
			Usage: "number of CPU tracers (0 = number of cores)",
		},
		cli.BoolFlag{
			Name:  "naive",
			Usage: "split frames by tracer speed estimate instead of measured block times",
		},
	}

	app := cli.NewApp()
	app.Name = "polaris-rt"
	app.Usage = "build and query bounding volume hierarchies for ray tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "info",
			Usage:     "display scene meshes and node hierarchy",
			ArgsUsage: "scene_file",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:  "build",
			Usage: "build scene BVHs and display tree statistics",
			Description: `
Parse a scene definition from a wavefront obj or glTF file and build a BVH for
the static geometry and for each instanced mesh.

Meshes that are not referenced by any instance are merged into the static tree.`,
			ArgsUsage: "scene_file",
			Flags: append(append([]cli.Flag{}, cmd.BuildFlags()...),
				cli.BoolFlag{
					Name:  "wide",
					Usage: "also collapse trees into 4-wide BVHs",
				},
				cli.BoolFlag{
					Name:  "verbose-meshes",
					Usage: "display full statistics for every instanced mesh tree",
				},
			),
			Action: cmd.BuildScene,
		},
		{
			Name:      "bench",
			Usage:     "compare ray query structures against brute force",
			ArgsUsage: "scene_file",
			Flags: append(append([]cli.Flag{}, cmd.BuildFlags()...),
				cli.IntFlag{
					Name:  "rays, r",
					Value: 100000,
					Usage: "number of random rays",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed for ray generation",
				},
				cli.BoolFlag{
					Name:  "skip-brute-force",
					Usage: "skip the brute force reference (mismatches are counted against the flat tree)",
				},
			),
			Action: cmd.Bench,
		},
		{
			Name:   "list-devices",
			Usage:  "list available CPUs",
			Action: cmd.ListDevices,
		},
		{
			Name:   "render",
			Usage:  "render scene",
			Action: nil,
			Subcommands: []cli.Command{
				{
					Name:        "frame",
					Usage:       "render still frames",
					Description: `Render the scene from the scene camera and display frame statistics.`,
					ArgsUsage:   "scene_file",
					Flags:       append(append([]cli.Flag{}, cmd.BuildFlags()...), renderFlags...),
					Action:      cmd.RenderFrame,
				},
				{
					Name:  "animate",
					Usage: "render frames while animating the scene's game objects",
					Description: `
Root game objects alternate between spinning around the Y axis and sliding along
the X axis. The dynamic BVH is rebuilt in the background at most once per
rebuild interval and swapped in between frames.`,
					ArgsUsage: "scene_file",
					Flags: append(append(append([]cli.Flag{}, cmd.BuildFlags()...), renderFlags...),
						cli.DurationFlag{
							Name:  "rebuild-interval",
							Value: time.Second,
							Usage: "minimum time between dynamic BVH rebuilds",
						},
						cli.DurationFlag{
							Name:  "period",
							Value: 2 * time.Second,
							Usage: "duration of one animation cycle",
						},
						cli.Float64Flag{
							Name:  "distance",
							Value: 2,
							Usage: "translation distance for sliding objects",
						},
					),
					Action: cmd.RenderAnimation,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
