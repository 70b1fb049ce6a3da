// Package navigation tracks the breadcrumb path from the drive root to the
// folder currently on screen.
package navigation

import "github.com/rescale/drive-explorer/internal/constants"

// Entry is one step in the breadcrumb path.
type Entry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Root is the first entry of every path.
var Root = Entry{Name: constants.RootFolderName, ID: constants.RootFolderID}

// State holds the breadcrumb path. The path always starts at Root and is never empty.
//
// State is not safe for concurrent use; the owning session serialises access.
// Clearing the pending download on navigation is the session's job, not this type's.
type State struct {
	path []Entry
}

// New returns a State positioned at the root.
func New() *State {
	return &State{path: []Entry{Root}}
}

// Current returns the folder currently viewed.
func (s *State) Current() Entry {
	return s.path[len(s.path)-1]
}

// Push appends a folder to the path.
func (s *State) Push(e Entry) {
	s.path = append(s.path, e)
}

// TruncateTo keeps path[0..index] inclusive. Returns false and leaves the path
// unchanged when index is out of range; stale breadcrumb clicks land here.
func (s *State) TruncateTo(index int) bool {
	if index < 0 || index >= len(s.path) {
		return false
	}
	s.path = s.path[:index+1]
	return true
}

// Reset returns to the root.
func (s *State) Reset() {
	s.path = []Entry{Root}
}

// Breadcrumbs returns a copy of the path.
func (s *State) Breadcrumbs() []Entry {
	out := make([]Entry, len(s.path))
	copy(out, s.path)
	return out
}
