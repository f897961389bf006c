// Package graph contains the runtime dependency tree the license resolver
// operates on.
package graph

import (
	"fmt"
	"io"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Node is one package in a runtime dependency tree. Children are owned by
// their parent; the same package may appear in several subtrees.
type Node struct {
	Name string
	// Licenses are the alternative licenses of this package alone.
	Licenses sets.Set[string]
	Children []*Node

	// Constraint is the version constraint the parent declared on this
	// package, if any. Informational only.
	Constraint string
	// LookupErr is set when metadata for this package could not be read. Such
	// a node has no licenses and fails closed.
	LookupErr error

	propagated sets.Set[string]
	resolved   bool
}

func NewNode(name string, licenses sets.Set[string], children ...*Node) *Node {
	if licenses == nil {
		licenses = sets.New[string]()
	}
	return &Node{Name: name, Licenses: licenses, Children: children}
}

// SetPropagated records the result of propagation for this subtree.
func (n *Node) SetPropagated(licenses sets.Set[string]) {
	n.propagated = licenses.Clone()
	n.resolved = true
}

// PropagatedLicenses returns the propagated license set. ok is false until
// propagation has completed for this node's subtree.
func (n *Node) PropagatedLicenses() (licenses sets.Set[string], ok bool) {
	if !n.resolved {
		return nil, false
	}
	return n.propagated.Clone(), true
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Len returns the number of nodes in the tree rooted at n.
func (n *Node) Len() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

func (n *Node) String() string {
	propagated := "[]"
	if n.resolved {
		propagated = formatSet(n.propagated)
	}
	s := n.Name + ": " + formatSet(n.Licenses) + " -> " + propagated
	if n.LookupErr != nil {
		s += " (lookup failed: " + n.LookupErr.Error() + ")"
	}
	return s
}

// Dump writes the tree, one node per line and indented by depth, showing each
// node's own licenses and its propagated set.
func (n *Node) Dump(w io.Writer) error {
	var err error
	n.Walk(func(node *Node, depth int) bool {
		if err != nil {
			return false
		}
		_, err = fmt.Fprintln(w, strings.Repeat("\t", depth)+node.String())
		return true
	})
	return err
}

// DumpString returns Dump's output as a string.
func (n *Node) DumpString() string {
	var b strings.Builder
	_ = n.Dump(&b)
	return b.String()
}

func formatSet(s sets.Set[string]) string {
	return "[" + strings.Join(sets.List(s), ", ") + "]"
}
