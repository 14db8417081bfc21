package ports

import (
	"context"
	"os"
	"sync"
)

// AcquireRequest describes the submission to fetch. Subfolder is a hint:
// sources that can fetch partially only fetch that folder.
type AcquireRequest struct {
	URL        string
	Credential string
	Subfolder  string
}

// RepositorySource acquires a read-only local copy of a remote repository.
type RepositorySource interface {
	Acquire(ctx context.Context, req AcquireRequest) (*Workspace, error)
}

// FileFetcher fetches a single file of a remote repository.
type FileFetcher interface {
	FetchFile(ctx context.Context, path, repoURL, credential string) ([]byte, error)
}

// Workspace is an owned, process-isolated directory holding an acquired copy.
// Close removes it and is safe to call more than once.
type Workspace struct {
	Root string

	once sync.Once
	err  error
}

func NewWorkspace(root string) *Workspace {
	return &Workspace{Root: root}
}

func (w *Workspace) Close() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.Root)
	})
	return w.err
}
