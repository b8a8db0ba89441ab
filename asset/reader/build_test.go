package reader

import (
	"context"
	"testing"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/scene"
	"github.com/achilleasa/polaris-rt/tlas"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

func TestBuildWorld(t *testing.T) {
	sc := readGLTFPayload(t)

	world, err := sc.Build(bvh.DefaultOptions(), bvh.NewBuildContext(2))
	if err != nil {
		t.Fatal(err)
	}

	if world.Static == nil || world.Static.GetPrimitiveCount() != 1 {
		t.Fatal("expected the unreferenced mesh to end up in the static tree")
	}
	if world.MeshTrees[0] == nil || world.MeshTrees[1] != nil {
		t.Fatal("expected only the instanced mesh to get its own tree")
	}
	if world.Graph.Len() != len(sc.Nodes) {
		t.Fatalf("expected %d game objects; got %d", len(sc.Nodes), world.Graph.Len())
	}

	childWorld, err := world.Graph.WorldTransform(world.Objects[2])
	if err != nil {
		t.Fatal(err)
	}
	if exp := types.XYZ(2, 0, -5); !childWorld.Translation().ApproxEqual(exp, 1e-5) {
		t.Fatalf("expected child world translation %v; got %v", exp, childWorld.Translation())
	}

	tl := tlas.New(world.Static, world.Graph, bvh.NewBuildContext(2), tlas.DefaultOptions())
	if err = tl.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	type spec struct {
		origin  types.Vec3
		expT    float32
		expInst int32
		expMiss bool
	}
	specs := []spec{
		// static triangle at z=0 occludes the root instance at z=-5
		{types.XYZ(0.2, 0.2, 3), 3, -1, false},
		// scaled child instance
		{types.XYZ(2.5, 0.5, 3), 8, int32(world.Objects[2]), false},
		{types.XYZ(10, 10, 3), 0, -1, true},
	}
	for idx, s := range specs {
		ray := types.NewRay(s.origin, types.XYZ(0, 0, -1))
		tl.TraceRay(&ray)
		if s.expMiss {
			if ray.IsValid() {
				t.Fatalf("[spec %d] expected a miss; got hit at %f", idx, ray.T)
			}
			continue
		}
		if !ray.IsValid() {
			t.Fatalf("[spec %d] expected a hit", idx)
		}
		if math32.Abs(ray.T-s.expT) > 1e-4 {
			t.Fatalf("[spec %d] expected hit distance %f; got %f", idx, s.expT, ray.T)
		}
		if ray.Hit.Instance != s.expInst {
			t.Fatalf("[spec %d] expected instance %d; got %d", idx, s.expInst, ray.Hit.Instance)
		}
	}
}

func TestBuildWavefrontGroups(t *testing.T) {
	payload := `
o tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
o floor
v -10 -1 -10
v 10 -1 -10
v 0 -1 10
f 4 5 6
group arm 0 2 0 0 0 0 1 1 1
instance tri 1 0 0 0 0 0 1 1 1 arm
`
	sc, err := readPayload(payload)
	if err != nil {
		t.Fatal(err)
	}

	world, err := sc.Build(bvh.DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if world.Static == nil || world.Static.GetPrimitiveCount() != 1 {
		t.Fatal("expected the floor mesh to end up in the static tree")
	}

	leaf := world.Objects[1]
	if !world.Graph.IsLeaf(leaf) || world.Graph.Parent(leaf) != world.Objects[0] {
		t.Fatal("expected the instance to be a leaf under the arm group")
	}

	bounds, err := world.Graph.WorldBounds(leaf)
	if err != nil {
		t.Fatal(err)
	}
	if !bounds.Min.ApproxEqual(types.XYZ(1, 2, 0), 1e-5) || !bounds.Max.ApproxEqual(types.XYZ(2, 3, 0), 1e-5) {
		t.Fatalf("expected instance world bounds [1,2,0]-[2,3,0]; got %v", bounds)
	}

	// Moving the group moves the instance
	if err = world.Graph.Move(world.Objects[0], types.XYZ(0, 0, -1)); err != nil {
		t.Fatal(err)
	}
	if bounds, _ = world.Graph.WorldBounds(leaf); !bounds.Min.ApproxEqual(types.XYZ(1, 2, -1), 1e-5) {
		t.Fatalf("expected instance to follow its group; got %v", bounds)
	}
	if world.Graph.Parent(world.Objects[0]) != scene.NoObject {
		t.Fatal("expected arm to be a root object")
	}
}

func TestBuildRejectsBadNodes(t *testing.T) {
	type spec struct {
		nodes []*Node
	}
	specs := []spec{
		{[]*Node{{Name: "a", Mesh: 3, Parent: -1, Local: types.Ident4()}}},
		{[]*Node{{Name: "a", Mesh: NoMesh, Parent: 0, Local: types.Ident4()}}},
	}
	for idx, s := range specs {
		sc := newScene()
		sc.Nodes = s.nodes
		if _, err := sc.Build(bvh.DefaultOptions(), nil); err == nil {
			t.Fatalf("[spec %d] expected an error", idx)
		}
	}
}
