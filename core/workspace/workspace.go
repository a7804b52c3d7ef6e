// Package workspace manages the file tree a scan runs over. A workspace is
// either a clone of a remote repository into a temporary directory or an
// existing local tree. Cloned workspaces are scoped resources: Close
// removes the temporary directory on every exit path, success or failure.
package workspace

import (
	"context"
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Workspace is a scanned file tree plus its release function.
type Workspace struct {
	// Root is the directory to scan.
	Root string

	temp bool
}

// FetchOptions describe a remote repository to clone.
type FetchOptions struct {
	URL    string
	Branch string
	// Depth limits clone history; zero means full history.
	Depth int
}

// Fetch clones the repository into a fresh temporary directory and returns
// it as a Workspace. On clone failure the temporary directory is removed
// before returning.
func Fetch(ctx context.Context, opts FetchOptions) (*Workspace, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("repository URL is required")
	}

	dir, err := os.MkdirTemp("", "codeguardian-scan-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace directory: %w", err)
	}

	cloneOpts := &git.CloneOptions{
		URL:   opts.URL,
		Depth: opts.Depth,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, cloneOpts); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("cloning %s: %w", opts.URL, err)
	}

	return &Workspace{Root: dir, temp: true}, nil
}

// Open wraps an existing local tree as a Workspace. Close is a no-op for
// opened workspaces; the caller owns the directory.
func Open(path string) (*Workspace, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", path)
	}
	return &Workspace{Root: path}, nil
}

// Close releases the workspace. For cloned workspaces this removes the
// temporary directory; it is safe to call more than once.
func (w *Workspace) Close() error {
	if !w.temp || w.Root == "" {
		return nil
	}
	err := os.RemoveAll(w.Root)
	w.Root = ""
	return err
}
