package models

import "time"

// PageSet is the document persisted under the "pages" resource: every page
// body in the workspace, serialized as one blob. The workspace record only
// indexes summaries; this is where the block content lives.
type PageSet struct {
	Pages []Page `json:"pages"`
}

func (ps PageSet) clone() PageSet {
	out := PageSet{Pages: make([]Page, len(ps.Pages))}
	copy(out.Pages, ps.Pages)
	return out
}

// Find returns a copy of the page with the given id.
func (ps PageSet) Find(id PageID) (Page, bool) {
	for _, p := range ps.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

// Upsert replaces the page with p.ID, or appends it if absent.
func (ps PageSet) Upsert(p Page) PageSet {
	out := ps.clone()
	for i, existing := range out.Pages {
		if existing.ID == p.ID {
			out.Pages[i] = p
			return out
		}
	}
	out.Pages = append(out.Pages, p)
	return out
}

// WithBlocks replaces the block sequence of the page with the given id and
// bumps its LastModified. No-op for an unknown id.
func (ps PageSet) WithBlocks(id PageID, blocks []Block) PageSet {
	out := ps.clone()
	for i, p := range out.Pages {
		if p.ID == id {
			out.Pages[i].Blocks = blocks
			out.Pages[i].LastModified = time.Now().UTC()
			break
		}
	}
	return out
}

// WithTitle updates title and (when non-empty) icon of the page with the
// given id. No-op for an unknown id.
func (ps PageSet) WithTitle(id PageID, title, icon string) PageSet {
	out := ps.clone()
	for i, p := range out.Pages {
		if p.ID == id {
			out.Pages[i].Title = title
			if icon != "" {
				out.Pages[i].Icon = icon
			}
			out.Pages[i].LastModified = time.Now().UTC()
			break
		}
	}
	return out
}
