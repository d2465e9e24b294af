package pointer

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/notelog/notelog/pkg/models"
)

// persistedState is the on-disk pointer record format. The two well-known
// resources get stable keys so the file stays readable by hand and by older
// builds; anything published under another name lives only in memory.
type persistedState struct {
	LastWorkspaceID models.ContentID `json:"lastWorkspaceId"`
	LastPagesID     models.ContentID `json:"lastPagesId"`
}

// FileState persists the pointer set as a small JSON file.
type FileState struct {
	Path string
}

var _ State = (*FileState)(nil)

// Load reads the pointer file. A missing file is an empty set; an
// unparsable file is an error the service downgrades to a warning.
func (f *FileState) Load() (map[string]models.ContentID, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.ContentID{}, nil
		}
		return nil, errors.Wrap(err, "read pointer state")
	}
	var ps persistedState
	if err := json.Unmarshal(b, &ps); err != nil {
		return nil, errors.Wrap(err, "parse pointer state")
	}
	out := map[string]models.ContentID{}
	if !ps.LastWorkspaceID.IsZero() {
		out[models.ResourceWorkspace] = ps.LastWorkspaceID
	}
	if !ps.LastPagesID.IsZero() {
		out[models.ResourcePages] = ps.LastPagesID
	}
	return out, nil
}

// Save writes the pointer set atomically (write temp file, rename over).
func (f *FileState) Save(pointers map[string]models.ContentID) error {
	ps := persistedState{
		LastWorkspaceID: pointers[models.ResourceWorkspace],
		LastPagesID:     pointers[models.ResourcePages],
	}
	b, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode pointer state")
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "write pointer state")
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return errors.Wrap(err, "replace pointer state")
	}
	return nil
}
