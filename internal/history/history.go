// Package history keeps a git log of the data directory. Every registry or notes
// write is recorded as a commit so a deleted show or note can be recovered by hand.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Recorder commits changes to files in a directory.
type Recorder interface {
	Record(ctx context.Context, message string, paths ...string) error
}

// Nop is a Recorder that does nothing.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, string, ...string) error { return nil }

// Author identifies who commits are attributed to.
type Author struct {
	Name  string
	Email string
}

// Repo records commits in a git repository rooted at the data directory.
type Repo struct {
	dir    string
	author Author
	repo   *git.Repository
	mu     sync.Mutex
	now    func() time.Time
}

const ignoreFile = ".gitignore"

// Lock files and temp files never belong in history.
const ignoreContents = "*.lock\n.shownotes-tmp-*\n*.db\n*.db-journal\n*.db-wal\n*.db-shm\n"

// Open opens the repository at dir, initialising it if it does not exist yet.
func Open(dir string, author Author) (*Repo, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve history directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		slog.Info("Initialising history repository", "dir", dir)
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history repository at %s: %w", dir, err)
	}

	r := &Repo{dir: dir, author: author, repo: repo, now: time.Now}

	ignorePath := filepath.Join(dir, ignoreFile)
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		if err := os.WriteFile(ignorePath, []byte(ignoreContents), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", ignorePath, err)
		}
		if err := r.Record(context.Background(), "Initialise history", ignoreFile); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Record stages the given paths and commits them. Paths may be absolute or relative
// to the repository root; a path that no longer exists is staged as a removal.
// Nothing to commit is not an error.
func (r *Repo) Record(ctx context.Context, message string, paths ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree for %s: %w", r.dir, err)
	}

	for _, p := range paths {
		rel, err := r.relative(p)
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(filepath.Join(r.dir, rel)); os.IsNotExist(statErr) {
			if _, err := worktree.Remove(rel); err != nil && !isUntracked(err) {
				return fmt.Errorf("failed to stage removal of %s: %w", rel, err)
			}
			continue
		}
		if _, err := worktree.Add(rel); err != nil {
			return fmt.Errorf("failed to stage %s: %w", rel, err)
		}
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  r.author.Name,
			Email: r.author.Email,
			When:  r.now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		slog.Debug("History unchanged", "message", message)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to commit %q: %w", message, err)
	}
	slog.Debug("History recorded", "message", message, "paths", len(paths))
	return nil
}

// Log returns commit messages, newest first, up to limit entries.
func (r *Repo) Log(limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var messages []string
	for len(messages) < limit {
		c, err := iter.Next()
		if err != nil {
			break
		}
		messages = append(messages, c.Message)
	}
	return messages, nil
}

func (r *Repo) relative(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p), nil
	}
	rel, err := filepath.Rel(r.dir, p)
	if err != nil {
		return "", fmt.Errorf("failed to make %s relative to %s: %w", p, r.dir, err)
	}
	return filepath.ToSlash(rel), nil
}

func isUntracked(err error) bool {
	return errors.Is(err, index.ErrEntryNotFound) || errors.Is(err, os.ErrNotExist)
}
