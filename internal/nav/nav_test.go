package nav

import (
	"strings"
	"testing"
)

func TestBuildMarksActiveSection(t *testing.T) {
	items := Build("/docs/ach")
	var active []string
	for _, it := range items {
		if it.Active {
			active = append(active, it.Href)
		}
	}
	if len(active) != 1 || active[0] != "/docs" {
		t.Fatalf("expected /docs active, got %v", active)
	}
	if Build("/docsx")[2].Active {
		t.Fatalf("prefix without segment boundary must not be active")
	}
}

func TestBreadcrumbs(t *testing.T) {
	crumbs := Breadcrumbs("/docs/sec-codes", map[string]string{"/docs/sec-codes": "SEC Codes"})
	if len(crumbs) != 3 {
		t.Fatalf("expected 3 crumbs, got %d", len(crumbs))
	}
	if crumbs[0].LabelKey != "nav.home" || crumbs[0].Active {
		t.Fatalf("unexpected home crumb: %+v", crumbs[0])
	}
	if crumbs[1].LabelKey != "nav.docs" || crumbs[1].Href != "/docs" {
		t.Fatalf("unexpected section crumb: %+v", crumbs[1])
	}
	if crumbs[2].Label != "SEC Codes" || !crumbs[2].Active {
		t.Fatalf("unexpected leaf crumb: %+v", crumbs[2])
	}

	legal := Breadcrumbs("/legal/privacy-policy", nil)
	if got := legal[2].Label; got != "Privacy Policy" {
		t.Fatalf("expected prettified label, got %q", got)
	}
	if legal[1].LabelKey != "" {
		t.Fatalf("unknown sections have no label key")
	}
}

func TestBreadcrumbsHome(t *testing.T) {
	crumbs := Breadcrumbs("", nil)
	if len(crumbs) != 1 || !crumbs[0].Active {
		t.Fatalf("unexpected crumbs for home: %+v", crumbs)
	}
}

func TestTrailInsertsEnclosingGroups(t *testing.T) {
	crumbs := Docs.Trail(Breadcrumbs("/docs/avs", map[string]string{"/docs/avs": "AVS"}), "/docs/avs")
	var labels []string
	for _, c := range crumbs[2:] {
		labels = append(labels, c.Label)
	}
	if got := strings.Join(labels, " / "); got != "Card Payments / Fraud Tools / AVS" {
		t.Fatalf("unexpected trail %q", got)
	}
	if crumbs[2].Href != "" || crumbs[3].Href != "" {
		t.Fatalf("group crumbs must not link: %+v", crumbs[2:4])
	}
	if !crumbs[len(crumbs)-1].Active {
		t.Fatalf("leaf crumb must stay active")
	}

	plain := Breadcrumbs("/docs", nil)
	if got := Docs.Trail(plain, "/docs"); len(got) != len(plain) {
		t.Fatalf("pages outside the tree keep their crumbs, got %+v", got)
	}
}
