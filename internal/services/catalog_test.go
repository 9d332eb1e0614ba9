package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCatalog_CreateTitle(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	ctx := context.Background()

	if _, err := cat.CreateTitle(ctx, " \t ", ""); !errors.Is(err, ErrEmptyTitleName) {
		t.Fatalf("blank name: want ErrEmptyTitleName, got %v", err)
	}

	title, err := cat.CreateTitle(ctx, "  The   Left Hand\tof Darkness ", " https://covers/x.jpg ")
	if err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	if title.Name != "The Left Hand of Darkness" {
		t.Fatalf("name = %q", title.Name)
	}
	if title.CoverURL != "https://covers/x.jpg" {
		t.Fatalf("cover = %q", title.CoverURL)
	}

	cat.NameMaxLen = 4
	short, err := cat.CreateTitle(ctx, strings.Repeat("é", 10), "")
	if err != nil || short.Name != "éééé" {
		t.Fatalf("truncate by runes: %q %v", short.Name, err)
	}

	got, err := cat.GetTitle(ctx, title.ID)
	if err != nil || got.Name != title.Name {
		t.Fatalf("GetTitle: %+v %v", got, err)
	}
	if _, err := cat.GetTitle(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown: want ErrNotFound, got %v", err)
	}
}

func TestCatalog_ListTitles(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	ctx := context.Background()

	items, total, err := cat.ListTitles(ctx, 1, 10)
	if err != nil || total != 0 || len(items) != 0 || items == nil {
		t.Fatalf("empty catalog: %v %d %v", items, total, err)
	}

	for _, n := range []string{"Emma", "Dune", "Ulysses"} {
		if _, err := cat.CreateTitle(ctx, n, ""); err != nil {
			t.Fatalf("CreateTitle: %v", err)
		}
	}
	items, total, err = cat.ListTitles(ctx, 1, 2)
	if err != nil || total != 3 || len(items) != 2 {
		t.Fatalf("page 1: %v %d %v", items, total, err)
	}
	if items[0].Name != "Dune" || items[1].Name != "Emma" {
		t.Fatalf("order: %s, %s", items[0].Name, items[1].Name)
	}
}

func TestPageWindow(t *testing.T) {
	cases := []struct{ page, size, off, lim int }{
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{0, 0, 0, 20},
		{-2, 5, 0, 5},
	}
	for _, c := range cases {
		off, lim := pageWindow(c.page, c.size)
		if off != c.off || lim != c.lim {
			t.Fatalf("pageWindow(%d,%d) = %d,%d want %d,%d", c.page, c.size, off, lim, c.off, c.lim)
		}
	}
}
