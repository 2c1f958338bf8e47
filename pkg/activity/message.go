package activity

import "fmt"

// MostRelevantMessage follows the last child at every level down to a leaf
// and describes that leaf's progress.
func MostRelevantMessage(node *Node) string {
	if node == nil {
		return ""
	}
	for len(node.Children) > 0 {
		node = node.Children[len(node.Children)-1]
	}
	return Describe(node)
}

// Describe formats a single node as "name (current/max)", "name (current)"
// or "name".
func Describe(node *Node) string {
	s := node.Snapshot
	switch {
	case s.Max > 0:
		return fmt.Sprintf("%s (%d/%d)", s.Name, s.Current, s.Max)
	case s.Current > 0:
		return fmt.Sprintf("%s (%d)", s.Name, s.Current)
	default:
		return s.Name
	}
}
