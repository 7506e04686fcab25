package fixer

import (
	stderrors "errors"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/zqshi/metricstd/internal/foundation/errors"
)

// worktreeGuard reports which files carry uncommitted changes. A nil guard
// means the root is not inside a git work tree and nothing is protected.
type worktreeGuard struct {
	top    string
	status git.Status
}

// openGuard looks for a git repository at or above root.
func openGuard(root string) (*worktreeGuard, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFix, "failed to open git repository").
			WithContext("root", root).Build()
	}

	w, err := repo.Worktree()
	if err != nil {
		if stderrors.Is(err, git.ErrIsBareRepository) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFix, "failed to get git worktree").Build()
	}

	status, err := w.Status()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFix, "failed to get git status").Build()
	}

	return &worktreeGuard{top: resolve(w.Filesystem.Root()), status: status}, nil
}

// dirty reports whether the file at abs differs from HEAD, is staged, or is
// untracked. Files outside the work tree are never dirty.
func (g *worktreeGuard) dirty(abs string) bool {
	if g == nil {
		return false
	}
	rel, err := filepath.Rel(g.top, resolve(abs))
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	fs, ok := g.status[filepath.ToSlash(rel)]
	if !ok {
		return false
	}
	return fs.Worktree != git.Unmodified || fs.Staging != git.Unmodified
}

func resolve(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	return p
}
