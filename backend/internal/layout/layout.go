// Package layout turns a memory list into a drawable graph: memories become
// nodes evenly spaced on a ring, and explicit links, shared people and shared
// places become edges.
package layout

import (
	"fmt"
	"math"

	"memory-graph/backend/internal/constants"
	"memory-graph/backend/internal/memory"
	"memory-graph/backend/internal/utils"
)

// EdgeKind names the relation an edge was derived from
type EdgeKind string

const (
	EdgeLink   EdgeKind = "link"
	EdgePerson EdgeKind = "person"
	EdgePlace  EdgeKind = "place"
)

// Point is a position on the canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one memory placed on the canvas. Position is the node center.
type Node struct {
	ID       string        `json:"id"`
	Position Point         `json:"position"`
	Angle    float64       `json:"angle"`
	Label    string        `json:"label"`
	Color    string        `json:"color"`
	Memory   memory.Memory `json:"memory"`
}

// Edge connects two nodes
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Graph is the result of a layout pass
type Graph struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Zoom   float64 `json:"zoom"`
	Radius float64 `json:"radius"`
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
}

// Options selects which edges Build derives. A zero LabelLength uses the
// default label length.
type Options struct {
	Links        bool
	SharedPeople bool
	SharedPlaces bool
	LabelLength  int
}

// DefaultOptions derives every edge kind
func DefaultOptions() Options {
	return Options{
		Links:        true,
		SharedPeople: true,
		SharedPlaces: true,
		LabelLength:  constants.NodeLabelLength,
	}
}

// Build lays out memories in list order. The result only depends on its
// inputs, so callers recompute it whenever the list or the zoom changes.
func Build(memories []memory.Memory, canvas Canvas, opts Options) Graph {
	width, height := canvas.Size()
	radius := Radius(width, height)
	cx, cy := width/2, height/2
	if opts.LabelLength <= 0 {
		opts.LabelLength = constants.NodeLabelLength
	}

	g := Graph{
		Width:  width,
		Height: height,
		Zoom:   canvas.Zoom,
		Radius: radius,
		Nodes:  make([]Node, len(memories)),
		Edges:  []Edge{},
	}

	n := float64(len(memories))
	for i, m := range memories {
		angle := 2 * math.Pi * float64(i) / n
		g.Nodes[i] = Node{
			ID: m.ID,
			Position: Point{
				X: cx + radius*math.Cos(angle),
				Y: cy + radius*math.Sin(angle),
			},
			Angle:  angle,
			Label:  utils.Truncate(m.Text, opts.LabelLength),
			Color:  m.Emotion.Color(),
			Memory: m,
		}
	}

	edges := newEdgeSet()
	if opts.Links {
		present := make(map[string]bool, len(memories))
		for _, m := range memories {
			present[m.ID] = true
		}
		for _, m := range memories {
			for _, target := range m.LinkedMemories {
				// links leaving the loaded set are dropped
				if present[target] && target != m.ID {
					edges.add(EdgeLink, m.ID, target)
				}
			}
		}
	}
	if opts.SharedPeople {
		sharedPass(edges, memories, EdgePerson, func(m *memory.Memory) []string { return m.PersonNames() })
	}
	if opts.SharedPlaces {
		sharedPass(edges, memories, EdgePlace, func(m *memory.Memory) []string { return m.PlaceNames() })
	}
	g.Edges = edges.list

	return g
}

// Radius is the ring radius for a canvas of the given size
func Radius(width, height float64) float64 {
	r := math.Min(width, height)/2 - constants.GraphNodeSize/2 - constants.GraphMargin
	return math.Max(0, r)
}

// sharedPass emits one edge for every pair i<j whose name sets intersect
func sharedPass(edges *edgeSet, memories []memory.Memory, kind EdgeKind, names func(*memory.Memory) []string) {
	sets := make([]map[string]bool, len(memories))
	for i := range memories {
		set := make(map[string]bool)
		for _, name := range names(&memories[i]) {
			set[name] = true
		}
		sets[i] = set
	}

	for i := 0; i < len(memories); i++ {
		for j := i + 1; j < len(memories); j++ {
			if intersects(sets[i], sets[j]) {
				edges.add(kind, memories[i].ID, memories[j].ID)
			}
		}
	}
}

func intersects(a, b map[string]bool) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for name := range a {
		if b[name] {
			return true
		}
	}
	return false
}

type edgeSet struct {
	seen map[string]bool
	list []Edge
}

func newEdgeSet() *edgeSet {
	return &edgeSet{seen: make(map[string]bool), list: []Edge{}}
}

func (s *edgeSet) add(kind EdgeKind, source, target string) {
	id := EdgeID(kind, source, target)
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.list = append(s.list, Edge{ID: id, Source: source, Target: target, Kind: kind})
}

// EdgeID is the identity of an edge: one per kind and ordered endpoint pair
func EdgeID(kind EdgeKind, source, target string) string {
	return fmt.Sprintf("%s-%s-%s", kind, source, target)
}
