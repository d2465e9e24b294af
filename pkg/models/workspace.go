package models

// Workspace operations follow the same pure convention as block operations:
// they return an updated copy and leave the receiver untouched, so the sync
// coordinator can compare old and new state to decide dirtiness.

// MaxRecentPages bounds the recent-pages list.
const MaxRecentPages = 10

func (w Workspace) clone() Workspace {
	out := w
	out.Pages = append([]PageSummary(nil), w.Pages...)
	out.RecentPages = append([]PageID(nil), w.RecentPages...)
	out.Favorites = append([]PageID(nil), w.Favorites...)
	return out
}

// AddPage appends a page summary to the index. Adding an id that is already
// present replaces its summary instead of duplicating it.
func (w Workspace) AddPage(s PageSummary) Workspace {
	out := w.clone()
	for i, p := range out.Pages {
		if p.ID == s.ID {
			out.Pages[i] = s
			return out
		}
	}
	out.Pages = append(out.Pages, s)
	return out
}

// RenamePage updates the indexed title (and icon, when non-empty) for id.
// Unknown ids are a no-op.
func (w Workspace) RenamePage(id PageID, title, icon string) Workspace {
	out := w.clone()
	for i, p := range out.Pages {
		if p.ID == id {
			out.Pages[i].Title = title
			if icon != "" {
				out.Pages[i].Icon = icon
			}
			break
		}
	}
	return out
}

// TouchRecent moves id to the front of the recent list, deduplicating and
// truncating to MaxRecentPages.
func (w Workspace) TouchRecent(id PageID) Workspace {
	out := w.clone()
	recent := make([]PageID, 0, len(out.RecentPages)+1)
	recent = append(recent, id)
	for _, r := range out.RecentPages {
		if r != id {
			recent = append(recent, r)
		}
	}
	if len(recent) > MaxRecentPages {
		recent = recent[:MaxRecentPages]
	}
	out.RecentPages = recent
	return out
}

// ToggleFavorite adds id to the favorites set, or removes it if present.
func (w Workspace) ToggleFavorite(id PageID) Workspace {
	out := w.clone()
	for i, f := range out.Favorites {
		if f == id {
			out.Favorites = append(out.Favorites[:i], out.Favorites[i+1:]...)
			return out
		}
	}
	out.Favorites = append(out.Favorites, id)
	return out
}

// IsFavorite reports whether id is in the favorites set.
func (w Workspace) IsFavorite(id PageID) bool {
	for _, f := range w.Favorites {
		if f == id {
			return true
		}
	}
	return false
}
