package models

import "testing"

func TestSlugDerivedFromNameOnCreate(t *testing.T) {
	m := WorldMap{Name: "Western Europe Classics"}
	if err := m.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if m.Slug != "western-europe-classics" {
		t.Fatalf("slug = %q, want western-europe-classics", m.Slug)
	}
}

func TestExplicitSlugIsKept(t *testing.T) {
	m := WorldMap{Name: "Western Europe Classics", Slug: "weu"}
	m.EnsureSlug()
	if m.Slug != "weu" {
		t.Fatalf("slug = %q, want the explicit weu", m.Slug)
	}
}
