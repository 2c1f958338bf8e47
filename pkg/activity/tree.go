// Package activity rebuilds the forest of in-flight server operations from
// the flat snapshot list pushed by the backend.
package activity

import (
	"github.com/grovetools/console/logging"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

var log = logging.NewLogger("activity")

// OrphanPolicy decides what happens to snapshots whose parent is missing.
type OrphanPolicy string

const (
	// OrphanDrop leaves orphans out of the root list. They are still
	// reported in Forest.Orphans.
	OrphanDrop OrphanPolicy = "drop"
	// OrphanDetach lists orphans as detached roots, subject to the same
	// scope rule as real roots.
	OrphanDetach OrphanPolicy = "detach"
)

// OrphanReason explains why a node could not be attached.
type OrphanReason string

const (
	ReasonMissingParent OrphanReason = "missing-parent"
	ReasonCycle         OrphanReason = "cycle"
)

// Node is a snapshot plus its children in discovery order.
type Node struct {
	Snapshot models.ActivitySnapshot
	Children []*Node
}

// Orphan is a node that could not be placed under a root.
type Orphan struct {
	Node   *Node
	Reason OrphanReason
}

// Forest is the result of Build.
type Forest struct {
	Roots   []*Node
	Orphans []Orphan
}

// Roots builds the forest with the drop policy and returns only the roots.
func Roots(snapshots []models.ActivitySnapshot, request scope.Scope) []*Node {
	return Build(snapshots, request, OrphanDrop).Roots
}

// Build turns a flat snapshot list into a forest filtered by request.
//
// Children are attached in list order. A parentless node becomes a root when
// its scope, trimmed to len(request), matches request. Snapshots whose
// parent is not in the batch are orphans. Nodes that only reach each other
// through parent links (a cycle) are orphans too, and are reported without
// children so they can be rendered safely. Roots keep first-discovery order.
// A repeated id keeps the position of its first occurrence and the content
// of its last.
func Build(snapshots []models.ActivitySnapshot, request scope.Scope, policy OrphanPolicy) Forest {
	var forest Forest
	if len(snapshots) == 0 {
		return forest
	}

	order := make([]string, 0, len(snapshots))
	index := make(map[string]*Node, len(snapshots))
	for _, snap := range snapshots {
		if existing, ok := index[snap.ID]; ok {
			existing.Snapshot = snap
			continue
		}
		index[snap.ID] = &Node{Snapshot: snap}
		order = append(order, snap.ID)
	}

	var candidates []*Node
	for _, id := range order {
		node := index[id]
		if node.Snapshot.IsRoot() {
			candidates = append(candidates, node)
			continue
		}
		parent, ok := index[node.Snapshot.ParentID]
		if !ok {
			log.WithField("uuid", id).
				WithField("parentUuid", node.Snapshot.ParentID).
				Warn("Activity parent not found, node orphaned")
			forest.Orphans = append(forest.Orphans, Orphan{Node: node, Reason: ReasonMissingParent})
			if policy == OrphanDetach {
				candidates = append(candidates, node)
			}
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	reachable := make(map[*Node]bool, len(index))
	for _, node := range candidates {
		markReachable(node, reachable)
	}
	for _, orphan := range forest.Orphans {
		markReachable(orphan.Node, reachable)
	}
	for _, id := range order {
		node := index[id]
		if reachable[node] {
			continue
		}
		log.WithField("uuid", id).Warn("Activity is part of a parent cycle, node orphaned")
		forest.Orphans = append(forest.Orphans, Orphan{
			Node:   &Node{Snapshot: node.Snapshot},
			Reason: ReasonCycle,
		})
	}

	for _, node := range candidates {
		if rootMatches(node.Snapshot.Scope, request) {
			forest.Roots = append(forest.Roots, node)
		}
	}
	return forest
}

func rootMatches(candidate, request scope.Scope) bool {
	if len(request) == 0 {
		return true
	}
	// A candidate shorter than the request can never match.
	return scope.Matches(candidate.Trim(len(request)), request)
}

func markReachable(node *Node, seen map[*Node]bool) {
	if seen[node] {
		return
	}
	seen[node] = true
	for _, child := range node.Children {
		markReachable(child, seen)
	}
}

// Count returns the number of nodes in the given subtrees.
func Count(nodes []*Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + Count(node.Children)
	}
	return n
}
