package nav

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrDuplicateKey is returned when two nodes resolve to the same composite key.
var ErrDuplicateKey = errors.New("nav: duplicate node key")

// ErrEmptyTitle is returned when a node has no title.
var ErrEmptyTitle = errors.New("nav: node title is required")

// Node is one entry of a static navigation tree. Nodes without children are links;
// nodes with children are collapsible groups and may carry an optional Href.
type Node struct {
	Title    string
	Href     string
	Children []Node
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool { return len(n.Children) == 0 }

// Kind tells templates how a rendered node is drawn.
type Kind string

const (
	KindLink   Kind = "link"
	KindToggle Kind = "toggle"
)

const (
	glyphCollapsed = "+"
	glyphExpanded  = "−"
)

// ChildKey derives the composite key of a node from its parent's key.
func ChildKey(parentKey, title string) string {
	if parentKey == "" {
		return title
	}
	return parentKey + "/" + title
}

// Tree is an immutable, validated navigation tree.
type Tree struct {
	roots     []Node
	keys      []string
	groups    map[string]struct{}
	ancestors map[string][]string // href -> keys of enclosing groups
}

// NewTree validates nodes and builds a Tree. Every composite key must be unique across
// the whole tree, so two nodes can never share open/closed state.
func NewTree(nodes []Node) (*Tree, error) {
	t := &Tree{
		roots:     cloneNodes(nodes),
		groups:    map[string]struct{}{},
		ancestors: map[string][]string{},
	}
	seen := map[string]struct{}{}
	var visit func(parentKey string, chain []string, list []Node) error
	visit = func(parentKey string, chain []string, list []Node) error {
		for _, n := range list {
			if strings.TrimSpace(n.Title) == "" {
				return fmt.Errorf("%w (under %q)", ErrEmptyTitle, parentKey)
			}
			key := ChildKey(parentKey, n.Title)
			if _, dup := seen[key]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
			}
			seen[key] = struct{}{}
			t.keys = append(t.keys, key)
			if n.Href != "" {
				if _, ok := t.ancestors[n.Href]; !ok {
					t.ancestors[n.Href] = append([]string(nil), chain...)
				}
			}
			if !n.IsLeaf() {
				t.groups[key] = struct{}{}
				if err := visit(key, append(chain, key), n.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := visit("", nil, t.roots); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTree is like NewTree but panics on invalid input. It is meant for package-level
// literals.
func MustTree(nodes []Node) *Tree {
	t, err := NewTree(nodes)
	if err != nil {
		panic(err)
	}
	return t
}

// Roots returns a copy of the top-level nodes.
func (t *Tree) Roots() []Node { return cloneNodes(t.roots) }

// Keys returns every composite key in depth-first order.
func (t *Tree) Keys() []string { return append([]string(nil), t.keys...) }

// IsGroup reports whether key names a node with children.
func (t *Tree) IsGroup(key string) bool {
	_, ok := t.groups[key]
	return ok
}

// Walk visits every node depth-first with its key and depth (roots have depth 0).
func (t *Tree) Walk(fn func(key string, n Node, depth int)) {
	var walk func(parentKey string, list []Node, depth int)
	walk = func(parentKey string, list []Node, depth int) {
		for _, n := range list {
			key := ChildKey(parentKey, n.Title)
			fn(key, n, depth)
			walk(key, n.Children, depth+1)
		}
	}
	walk("", t.roots, 0)
}

// Links returns the hrefs of all nodes in tree order, without duplicates.
func (t *Tree) Links() []string {
	var out []string
	seen := map[string]struct{}{}
	t.Walk(func(_ string, n Node, _ int) {
		if n.Href == "" {
			return
		}
		if _, ok := seen[n.Href]; ok {
			return
		}
		seen[n.Href] = struct{}{}
		out = append(out, n.Href)
	})
	return out
}

// Title returns the title of the first node pointing at href.
func (t *Tree) Title(href string) (string, bool) {
	var title string
	t.Walk(func(_ string, n Node, _ int) {
		if title == "" && n.Href == href {
			title = n.Title
		}
	})
	return title, title != ""
}

// AncestorsOf returns the keys of the groups enclosing the node that links to href.
func (t *Tree) AncestorsOf(href string) []string {
	return append([]string(nil), t.ancestors[href]...)
}

// ExpandTo opens every group enclosing href in state.
func (t *Tree) ExpandTo(state OpenState, href string) {
	for _, key := range t.ancestors[href] {
		state[key] = true
	}
}

// RenderedNode is the template view of a node.
type RenderedNode struct {
	Key       string
	Title     string
	Href      string
	Kind      Kind
	Open      bool
	Active    bool
	Depth     int
	Glyph     string
	ToggleURL string
	Children  []RenderedNode
}

// IsLink reports whether the node renders as a hyperlink.
func (r RenderedNode) IsLink() bool { return r.Kind == KindLink }

// RenderOptions tune Render.
type RenderOptions struct {
	// CurrentPath marks the matching link as active.
	CurrentPath string
	// ToggleBase is the fragment endpoint used to build each group's ToggleURL.
	ToggleBase string
}

// Render walks the tree and produces the view for the given open state. Groups render
// as toggles and only include their children when open; leaves render as links.
func (t *Tree) Render(state OpenState, opts RenderOptions) []RenderedNode {
	var render func(parentKey string, list []Node, depth int) []RenderedNode
	render = func(parentKey string, list []Node, depth int) []RenderedNode {
		out := make([]RenderedNode, 0, len(list))
		for _, n := range list {
			key := ChildKey(parentKey, n.Title)
			rn := RenderedNode{
				Key:    key,
				Title:  n.Title,
				Href:   n.Href,
				Depth:  depth,
				Active: n.Href != "" && n.Href == opts.CurrentPath,
			}
			if n.IsLeaf() {
				rn.Kind = KindLink
			} else {
				rn.Kind = KindToggle
				rn.Open = state.IsOpen(key)
				rn.Glyph = glyphCollapsed
				if rn.Open {
					rn.Glyph = glyphExpanded
					rn.Children = render(key, n.Children, depth+1)
				}
				if opts.ToggleBase != "" {
					rn.ToggleURL = state.ToggleURL(opts.ToggleBase, key, opts.CurrentPath)
				}
			}
			out = append(out, rn)
		}
		return out
	}
	return render("", t.roots, 0)
}

// OpenState maps node keys to their open flag. The zero value is not usable; create
// one with NewOpenState or ParseOpenState.
type OpenState map[string]bool

// NewOpenState returns an empty state in which every group is closed.
func NewOpenState() OpenState { return OpenState{} }

// ParseOpenState builds a state with each listed key open. Blank keys are ignored.
func ParseOpenState(keys []string) OpenState {
	s := NewOpenState()
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			s[k] = true
		}
	}
	return s
}

// Toggle flips the flag for key and leaves every other key untouched.
func (s OpenState) Toggle(key string) {
	s[key] = !s[key]
}

// IsOpen reports whether key is open.
func (s OpenState) IsOpen(key string) bool { return s[key] }

// OpenKeys returns the open keys sorted.
func (s OpenState) OpenKeys() []string {
	out := make([]string, 0, len(s))
	for k, open := range s {
		if open {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s OpenState) Clone() OpenState {
	cp := make(OpenState, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// ToggleURL encodes the current open keys plus the key to toggle, so the fragment
// endpoint can rebuild the state without storing it.
func (s OpenState) ToggleURL(base, key, currentPath string) string {
	q := url.Values{}
	for _, k := range s.OpenKeys() {
		q.Add("open", k)
	}
	q.Set("toggle", key)
	if currentPath != "" {
		q.Set("path", currentPath)
	}
	return base + "?" + q.Encode()
}

func cloneNodes(src []Node) []Node {
	if src == nil {
		return nil
	}
	out := make([]Node, len(src))
	for i, n := range src {
		out[i] = Node{Title: n.Title, Href: n.Href, Children: cloneNodes(n.Children)}
	}
	return out
}
