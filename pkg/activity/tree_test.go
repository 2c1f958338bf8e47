package activity

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

func snap(id, parent string, sc ...string) models.ActivitySnapshot {
	return models.ActivitySnapshot{ID: id, ParentID: parent, Name: "op-" + id, Scope: sc}
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Snapshot.ID)
	}
	return out
}

func TestBuildEmpty(t *testing.T) {
	f := Build(nil, scope.Scope{"g"}, OrphanDrop)
	assert.Empty(t, f.Roots)
	assert.Empty(t, f.Orphans)
}

func TestBuildTrimmedScopeExample(t *testing.T) {
	snaps := []models.ActivitySnapshot{
		snap("1", "", "g"),
		snap("2", "1", "g"),
		snap("3", "", "g", "x"),
	}

	roots := Roots(snaps, scope.Scope{"g"})
	require.Len(t, roots, 2)
	assert.Equal(t, []string{"1", "3"}, ids(roots))
	assert.Equal(t, []string{"2"}, ids(roots[0].Children))
	assert.Empty(t, roots[1].Children)
}

func TestBuildScopeFiltering(t *testing.T) {
	snaps := []models.ActivitySnapshot{
		snap("a", "", "g"),
		snap("b", "", "g", "x"),
		snap("c", "", "h"),
		snap("d", ""),
	}

	tests := []struct {
		name    string
		request scope.Scope
		want    []string
	}{
		{"empty request takes every root", nil, []string{"a", "b", "c", "d"}},
		{"group request", scope.Scope{"g"}, []string{"a", "b"}},
		{"instance request excludes shorter scopes", scope.Scope{"g", "x"}, []string{"b"}},
		{"unknown group", scope.Scope{"z"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Roots(snaps, tt.request))
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildChildrenKeepListOrder(t *testing.T) {
	snaps := []models.ActivitySnapshot{
		snap("c2", "p"),
		snap("p", "", "g"),
		snap("c1", "p"),
		snap("c3", "p"),
	}
	roots := Roots(snaps, nil)
	require.Len(t, roots, 1)
	assert.Equal(t, []string{"c2", "c1", "c3"}, ids(roots[0].Children))
}

func TestBuildOrphanPolicies(t *testing.T) {
	snaps := []models.ActivitySnapshot{
		snap("1", "", "g"),
		snap("2", "missing", "g"),
		snap("3", "2", "g"),
		snap("4", "missing", "h"),
	}

	dropped := Build(snaps, scope.Scope{"g"}, OrphanDrop)
	assert.Equal(t, []string{"1"}, ids(dropped.Roots))
	require.Len(t, dropped.Orphans, 2)
	assert.Equal(t, "2", dropped.Orphans[0].Node.Snapshot.ID)
	assert.Equal(t, ReasonMissingParent, dropped.Orphans[0].Reason)
	assert.Equal(t, []string{"3"}, ids(dropped.Orphans[0].Node.Children))

	detached := Build(snaps, scope.Scope{"g"}, OrphanDetach)
	assert.Equal(t, []string{"1", "2"}, ids(detached.Roots), "orphan of another scope stays out")
	assert.Len(t, detached.Orphans, 2)
}

func TestBuildCycleIsOrphaned(t *testing.T) {
	snaps := []models.ActivitySnapshot{
		snap("root", ""),
		snap("a", "b"),
		snap("b", "a"),
	}
	f := Build(snaps, nil, OrphanDetach)
	assert.Equal(t, []string{"root"}, ids(f.Roots))
	require.Len(t, f.Orphans, 2)
	for _, o := range f.Orphans {
		assert.Equal(t, ReasonCycle, o.Reason)
		assert.Empty(t, o.Node.Children)
	}
}

func TestBuildDuplicateIDKeepsFirstPositionLastContent(t *testing.T) {
	first := snap("1", "", "g")
	second := snap("2", "", "g")
	updated := first
	updated.Current = 7

	roots := Roots([]models.ActivitySnapshot{first, second, updated}, nil)
	assert.Equal(t, []string{"1", "2"}, ids(roots))
	assert.Equal(t, int64(7), roots[0].Snapshot.Current)
}

func TestBuildCountsEveryInputExactlyOnce(t *testing.T) {
	// Deterministic pseudo-random parent chains, always pointing backwards
	// or at a missing id, so no cycles.
	for seed := 1; seed <= 25; seed++ {
		n := seed * 3
		snaps := make([]models.ActivitySnapshot, 0, n)
		for i := 0; i < n; i++ {
			parent := ""
			switch (i * seed) % 4 {
			case 1, 2:
				if i > 0 {
					parent = fmt.Sprint((i*seed + 3) % i)
				}
			case 3:
				parent = "gone"
			}
			snaps = append(snaps, snap(fmt.Sprint(i), parent, "g"))
		}

		f := Build(snaps, nil, OrphanDrop)
		orphanNodes := make([]*Node, 0, len(f.Orphans))
		for _, o := range f.Orphans {
			orphanNodes = append(orphanNodes, o.Node)
		}
		assert.Equal(t, n, Count(f.Roots)+Count(orphanNodes), "seed %d", seed)

		seen := map[string]bool{}
		var walk func([]*Node)
		walk = func(nodes []*Node) {
			for _, node := range nodes {
				require.False(t, seen[node.Snapshot.ID], "node %s twice", node.Snapshot.ID)
				seen[node.Snapshot.ID] = true
				walk(node.Children)
			}
		}
		walk(f.Roots)
		walk(orphanNodes)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	snaps := []models.ActivitySnapshot{snap("1", "", "g"), snap("2", "1", "g")}
	before := append([]models.ActivitySnapshot(nil), snaps...)
	_ = Build(snaps, scope.Scope{"g"}, OrphanDrop)
	if diff := cmp.Diff(before, snaps); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}
