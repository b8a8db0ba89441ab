package cmd

import (
	"strings"
	"testing"

	"github.com/achilleasa/polaris-rt/asset/reader"
	"github.com/achilleasa/polaris-rt/types"
)

func TestNodeTree(t *testing.T) {
	sc := &reader.Scene{
		Meshes: []*reader.Mesh{{Name: "tri"}},
		Nodes: []*reader.Node{
			{Name: "arm", Mesh: reader.NoMesh, Parent: -1, Local: types.Ident4()},
			{Name: "hand", Mesh: 0, Parent: 0, Local: types.Translate4(types.XYZ(1, 0, 0))},
		},
	}

	lines := strings.Split(strings.TrimSpace(nodeTree(sc)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines; got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "- arm (group)") {
		t.Fatalf("unexpected root line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  - hand (mesh tri)") {
		t.Fatalf("unexpected child line %q", lines[1])
	}
}
