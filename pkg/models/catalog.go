package models

// BlockType discriminates how a block's content and properties are
// interpreted by renderers and by slash-command search.
type BlockType string

const (
	BlockTypeText     BlockType = "text"
	BlockTypeHeading1 BlockType = "heading1"
	BlockTypeHeading2 BlockType = "heading2"
	BlockTypeHeading3 BlockType = "heading3"
	BlockTypeBullet   BlockType = "bullet"
	BlockTypeNumbered BlockType = "numbered"
	BlockTypeTodo     BlockType = "todo"
	BlockTypeQuote    BlockType = "quote"
	BlockTypeCode     BlockType = "code"
	BlockTypeDivider  BlockType = "divider"
	BlockTypeCallout  BlockType = "callout"
	BlockTypeImage    BlockType = "image"
)

// DefaultBlockType is the type new blocks start with and the type an empty
// block is demoted to on backspace.
const DefaultBlockType = BlockTypeText

// CatalogEntry describes one block type for rendering affordances and
// slash-command search.
type CatalogEntry struct {
	Key         BlockType `json:"key"`
	Icon        string    `json:"icon"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
}

// catalog is the process-wide, read-only block type registry. Registration
// order is significant: slash-command results preserve it.
var catalog = []CatalogEntry{
	{Key: BlockTypeText, Icon: "Aa", Label: "Text", Description: "Just start writing with plain text"},
	{Key: BlockTypeHeading1, Icon: "H1", Label: "Heading 1", Description: "Big section heading"},
	{Key: BlockTypeHeading2, Icon: "H2", Label: "Heading 2", Description: "Medium section heading"},
	{Key: BlockTypeHeading3, Icon: "H3", Label: "Heading 3", Description: "Small section heading"},
	{Key: BlockTypeBullet, Icon: "•", Label: "Bulleted list", Description: "Create a simple bulleted list"},
	{Key: BlockTypeNumbered, Icon: "1.", Label: "Numbered list", Description: "Create a list with numbering"},
	{Key: BlockTypeTodo, Icon: "☑", Label: "To-do list", Description: "Track tasks with checkboxes"},
	{Key: BlockTypeQuote, Icon: "❝", Label: "Quote", Description: "Capture a quote"},
	{Key: BlockTypeCode, Icon: "</>", Label: "Code", Description: "Capture a code snippet"},
	{Key: BlockTypeDivider, Icon: "—", Label: "Divider", Description: "Visually divide blocks"},
	{Key: BlockTypeCallout, Icon: "💡", Label: "Callout", Description: "Make writing stand out"},
	{Key: BlockTypeImage, Icon: "🖼", Label: "Image", Description: "Embed an image with a caption"},
}

// Catalog returns the registered block types in registration order. The
// returned slice is a copy; callers may not grow or reorder the registry.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// LookupType returns the catalog entry for key, if registered.
func LookupType(key BlockType) (CatalogEntry, bool) {
	for _, e := range catalog {
		if e.Key == key {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// ValidType reports whether key is a registered block type.
func ValidType(key BlockType) bool {
	_, ok := LookupType(key)
	return ok
}
