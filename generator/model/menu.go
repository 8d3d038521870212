package model

import (
	"sort"
	"strconv"
)

// MenuEntry is an entry in the navigation menu.
type MenuEntry struct {
	// Title of the menu entry.
	Title string
	// URL of the page, relative to the site root.
	URL string
	// order is the nav_order front-matter value, entries without one sort last.
	order int
}

// IsHome is true for the entry pointing to the site root.
func (m MenuEntry) IsHome() bool {
	return m.URL == "/"
}

// Menu builds the navigation menu from pages that are not hidden.
// The home entry always comes first, pages with a nav_order follow in that order, the rest is sorted by title.
func Menu(pages []*Document) []MenuEntry {
	menu := []MenuEntry{}
	for _, page := range pages {
		if page.Kind() != KindPage || page.Hidden() {
			continue
		}

		order, err := strconv.Atoi(page.Param("nav_order"))
		if err != nil {
			order = int(^uint(0) >> 1)
		}
		menu = append(menu, MenuEntry{Title: page.Title(), URL: page.URL(), order: order})
	}

	sort.SliceStable(menu, func(i, j int) bool {
		a, b := menu[i], menu[j]
		if a.IsHome() != b.IsHome() {
			return a.IsHome()
		}
		if a.order != b.order {
			return a.order < b.order
		}

		return a.Title < b.Title
	})

	return menu
}

// Menu returns the navigation menu of the site.
func (idx *SiteIndex) Menu() []MenuEntry {
	return Menu(idx.Pages)
}
