package nav

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var sample = []Node{
	{Title: "Guides", Children: []Node{
		{Title: "Intro", Href: "/docs/intro"},
		{Title: "Deep", Children: []Node{
			{Title: "Leaf", Href: "/docs/leaf"},
		}},
	}},
	{Title: "Home", Href: "/"},
}

func TestNewTreeKeys(t *testing.T) {
	tree, err := NewTree(sample)
	require.NoError(t, err)

	want := []string{"Guides", "Guides/Intro", "Guides/Deep", "Guides/Deep/Leaf", "Home"}
	if diff := cmp.Diff(want, tree.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	require.True(t, tree.IsGroup("Guides/Deep"))
	require.False(t, tree.IsGroup("Home"))
}

func TestNewTreeRejectsDuplicateKeys(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
	}{
		{
			name: "sibling titles",
			nodes: []Node{{Title: "A", Children: []Node{
				{Title: "B", Href: "/b"},
				{Title: "B", Href: "/b2"},
			}}},
		},
		{
			name: "slash in title collides across levels",
			nodes: []Node{
				{Title: "A", Children: []Node{{Title: "B", Href: "/b"}}},
				{Title: "A/B", Href: "/ab"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTree(tt.nodes)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrDuplicateKey))
			require.Contains(t, err.Error(), `"A/B"`)
		})
	}
}

func TestNewTreeRejectsEmptyTitle(t *testing.T) {
	_, err := NewTree([]Node{{Title: "A", Children: []Node{{Title: " "}}}})
	require.ErrorIs(t, err, ErrEmptyTitle)
}

func TestMustTreePanics(t *testing.T) {
	require.Panics(t, func() {
		MustTree([]Node{{Title: "X"}, {Title: "X"}})
	})
}

func TestToggleFlipsOnlyTheKey(t *testing.T) {
	tree := MustTree(sample)
	state := ParseOpenState([]string{"Guides", "Guides/Deep"})

	for _, key := range tree.Keys() {
		before := state.Clone()
		state.Toggle(key)
		require.Equal(t, !before.IsOpen(key), state.IsOpen(key), "key %s", key)
		for _, other := range tree.Keys() {
			if other == key {
				continue
			}
			require.Equal(t, before.IsOpen(other), state.IsOpen(other), "toggling %s changed %s", key, other)
		}
		state.Toggle(key)
		require.Equal(t, before.IsOpen(key), state.IsOpen(key))
	}
}

func TestRenderLinksAndToggles(t *testing.T) {
	tree := MustTree(sample)

	closed := tree.Render(NewOpenState(), RenderOptions{})
	require.Len(t, closed, 2)
	require.Equal(t, KindToggle, closed[0].Kind)
	require.False(t, closed[0].Open)
	require.Empty(t, closed[0].Children, "closed groups hide their children")
	require.Equal(t, glyphCollapsed, closed[0].Glyph)
	require.Equal(t, KindLink, closed[1].Kind)
	require.True(t, closed[1].IsLink())

	open := tree.Render(ParseOpenState([]string{"Guides"}), RenderOptions{CurrentPath: "/docs/intro"})
	guides := open[0]
	require.True(t, guides.Open)
	require.Equal(t, glyphExpanded, guides.Glyph)
	require.Len(t, guides.Children, 2)
	require.Equal(t, KindLink, guides.Children[0].Kind)
	require.True(t, guides.Children[0].Active)
	require.Equal(t, 1, guides.Children[0].Depth)
	deep := guides.Children[1]
	require.Equal(t, KindToggle, deep.Kind)
	require.False(t, deep.Open, "descendant state is independent of the parent")
	require.Empty(t, deep.Children)
}

func TestRenderKindMatchesChildren(t *testing.T) {
	tree := Docs
	state := ParseOpenState(tree.Keys())
	var check func(nodes []RenderedNode)
	count := 0
	check = func(nodes []RenderedNode) {
		for _, n := range nodes {
			count++
			if len(n.Children) > 0 {
				require.Equal(t, KindToggle, n.Kind, n.Key)
			}
			if n.Kind == KindLink {
				require.NotEmpty(t, n.Href, n.Key)
				require.Empty(t, n.Children)
			}
			check(n.Children)
		}
	}
	check(tree.Render(state, RenderOptions{}))
	require.Equal(t, len(tree.Keys()), count, "fully open tree renders every node")
}

func TestToggleURLCarriesState(t *testing.T) {
	tree := MustTree(sample)
	state := ParseOpenState([]string{"Guides"})
	nodes := tree.Render(state, RenderOptions{ToggleBase: "/docs/nav", CurrentPath: "/docs/leaf"})

	raw := nodes[0].Children[1].ToggleURL
	require.True(t, strings.HasPrefix(raw, "/docs/nav?"))
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, []string{"Guides"}, q["open"])
	require.Equal(t, "Guides/Deep", q.Get("toggle"))
	require.Equal(t, "/docs/leaf", q.Get("path"))
	require.Empty(t, nodes[1].ToggleURL, "links have no toggle url")
}

func TestExpandToOpensAncestors(t *testing.T) {
	tree := MustTree(sample)
	require.Equal(t, []string{"Guides", "Guides/Deep"}, tree.AncestorsOf("/docs/leaf"))
	require.Empty(t, tree.AncestorsOf("/"))

	state := NewOpenState()
	tree.ExpandTo(state, "/docs/leaf")
	require.Equal(t, []string{"Guides", "Guides/Deep"}, state.OpenKeys())
}

func TestParseOpenStateIgnoresBlanks(t *testing.T) {
	state := ParseOpenState([]string{"", "  ", "A"})
	require.Equal(t, []string{"A"}, state.OpenKeys())
	state.Toggle("A")
	require.Empty(t, state.OpenKeys())
}

func TestDocsTreeLinks(t *testing.T) {
	links := Docs.Links()
	require.Contains(t, links, "/docs/sec-codes")
	title, ok := Docs.Title("/docs/3ds")
	require.True(t, ok)
	require.Equal(t, "3-D Secure", title)
	require.Equal(t, []string{"Card Payments", "Card Payments/Fraud Tools"}, Docs.AncestorsOf("/docs/avs"))
}

func TestRootsReturnsCopy(t *testing.T) {
	tree := MustTree(sample)
	roots := tree.Roots()
	roots[0].Children[0].Title = "mutated"
	require.Equal(t, "Intro", tree.Roots()[0].Children[0].Title)
}
