package runtime

import (
	"fmt"

	"github.com/google/uuid"
)

// FileState is one in-flight file analysis: its host-stable identifier
// and the MIME type it was announced with, if any.
type FileState struct {
	FID      string
	MimeType string
}

// FileStateStack tracks the files currently being extracted within one
// context. It is a LIFO stack: the top entry is the "current" file that
// unaddressed data operations feed. Nested extraction pushes on push;
// completion removes by identifier wherever the entry sits, so nested
// files may finish out of order.
type FileStateStack struct {
	scope   string // uniquifies minted IDs per analyzer instance
	counter uint64
	stack   []*FileState
	hash    func(handle string) string
}

// NewFileStateStack creates a stack minting file IDs through the given
// hash (normally FileManager.HashHandle). An empty scope gets a random
// one, keeping IDs unique across analyzer instances.
func NewFileStateStack(scope string, hash func(handle string) string) *FileStateStack {
	if scope == "" {
		scope = uuid.NewString()
	}
	if hash == nil {
		hash = func(handle string) string { return handle }
	}
	return &FileStateStack{scope: scope, hash: hash}
}

// Push mints a fresh file identifier and puts a new entry on top of the
// stack. Identifiers are never reused within the stack's lifetime.
func (s *FileStateStack) Push() *FileState {
	s.counter++
	fs := &FileState{FID: s.hash(fmt.Sprintf("%s.%d", s.scope, s.counter))}
	s.stack = append(s.stack, fs)
	return fs
}

// IsEmpty reports whether no file analysis is in flight.
func (s *FileStateStack) IsEmpty() bool { return len(s.stack) == 0 }

// Current returns the top entry, or nil if the stack is empty.
func (s *FileStateStack) Current() *FileState {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Find returns the entry with the given identifier, or nil. The search
// runs top-down since the entry addressed by default sits on top.
func (s *FileStateStack) Find(fid string) *FileState {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].FID == fid {
			return s.stack[i]
		}
	}
	return nil
}

// Remove drops the entry with the given identifier, wherever it is in the
// stack; entries above and below it are untouched. Removing an unknown
// identifier is a no-op.
func (s *FileStateStack) Remove(fid string) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].FID == fid {
			s.stack = append(s.stack[:i], s.stack[i+1:]...)
			return
		}
	}
}

// Size returns the number of in-flight files.
func (s *FileStateStack) Size() int { return len(s.stack) }
