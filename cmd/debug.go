package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/achilleasa/polaris-rt/asset/reader"
	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/primitive"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

type benchTarget struct {
	name   string
	trace  func(*types.Ray)
	shadow func(*types.Ray, float32) bool
}

type benchResult struct {
	name       string
	traceTime  time.Duration
	shadowTime time.Duration
	hits       int
	occluded   int
	mismatches int
}

// Compare the query structures against brute force on random rays.
func Bench(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}
	opts, bc, err := buildOptions(ctx)
	if err != nil {
		return err
	}
	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	// Merge all meshes in model space
	list := primitive.NewList()
	for _, mesh := range sc.Meshes {
		list.Add(mesh.Triangles...)
	}
	if list.Len() == 0 {
		return errors.New("scene contains no triangles")
	}

	flat := bvh.New(list, opts)
	flat.ConstructBVHParallel(bc)
	wide := bvh.NewWideBVH(flat)
	wide.MergeNodesParallel(bc)
	logger.Noticef("tree statistics\n%s", func() string {
		ws := wide.Stats()
		return bvh.StatsTable(flat.Stats(), &ws)
	}())

	rays := randomRays(flat.Bounds(), ctx.Int("rays"), ctx.Int64("seed"))

	targets := []benchTarget{
		{"brute force", list.TraceRay, list.Occluded},
		{"flat", flat.TraceRay, flat.TraceShadowRay},
		{"flat (stack)", flat.TraceRayStack, flat.TraceShadowRay},
		{"wide", wide.TraceRay, wide.TraceShadowRay},
		{"wide (stack)", wide.TraceRayStack, wide.TraceShadowRay},
	}
	if ctx.Bool("skip-brute-force") {
		targets = targets[1:]
	}

	// The first target provides the reference hits.
	var reference []float32
	results := make([]benchResult, len(targets))
	for index, target := range targets {
		res := benchResult{name: target.name}
		distances := make([]float32, len(rays))

		start := time.Now()
		for rayIndex := range rays {
			ray := rays[rayIndex]
			target.trace(&ray)
			distances[rayIndex] = ray.T
		}
		res.traceTime = time.Since(start)

		start = time.Now()
		for rayIndex := range rays {
			if target.shadow(&rays[rayIndex], math32.Inf(1)) {
				res.occluded++
			}
		}
		res.shadowTime = time.Since(start)

		for rayIndex, dist := range distances {
			if !math32.IsInf(dist, 1) {
				res.hits++
			}
			if reference != nil && math32.Abs(dist-reference[rayIndex]) > 1e-3 && !(math32.IsInf(dist, 1) && math32.IsInf(reference[rayIndex], 1)) {
				res.mismatches++
			}
		}
		if reference == nil {
			reference = distances
		}
		results[index] = res
	}

	logger.Noticef("ray query benchmark (%d rays)\n%s", len(rays), benchTable(results, len(rays)))
	return nil
}

// Generate rays starting on a sphere that encloses bounds and pointing
// at random points inside bounds.
func randomRays(bounds types.AABB, count int, seed int64) []types.Ray {
	rng := rand.New(rand.NewSource(seed))
	center := bounds.Centroid()
	radius := bounds.Max.Sub(bounds.Min).Len()
	if radius == 0 {
		radius = 1
	}

	randUnit := func() types.Vec3 {
		for {
			v := types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1)
			if l := v.Len(); l > 1e-3 && l <= 1 {
				return v.Normalize()
			}
		}
	}

	extent := bounds.Max.Sub(bounds.Min)
	rays := make([]types.Ray, count)
	for index := range rays {
		origin := center.Add(randUnit().Mul(radius))
		target := bounds.Min.Add(types.XYZ(rng.Float32()*extent[0], rng.Float32()*extent[1], rng.Float32()*extent[2]))
		rays[index] = types.NewRay(origin, target.Sub(origin).Normalize())
	}
	return rays
}

func benchTable(results []benchResult, rays int) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Structure", "Trace time", "Mrays/s", "Shadow time", "Hits", "Occluded", "Mismatches"})
	for _, res := range results {
		table.Append([]string{
			res.name,
			res.traceTime.String(),
			fmt.Sprintf("%.2f", float64(rays)/res.traceTime.Seconds()/1e6),
			res.shadowTime.String(),
			fmt.Sprint(res.hits),
			fmt.Sprint(res.occluded),
			fmt.Sprint(res.mismatches),
		})
	}
	table.Render()
	return buf.String()
}
