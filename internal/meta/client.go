package meta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRepoURL loads the catalog from a git repository of TOML files. The
// repository is cloned into the client's archive path on first use and
// pulled on every later load.
func WithRepoURL(url string) ClientOption {
	return func(c *Client) {
		c.repoURL = url
	}
}

// WithFile loads the catalog from a local TOML file.
func WithFile(path string) ClientOption {
	return func(c *Client) {
		c.file = path
	}
}

// WithLogger sets the logger for progress output.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// Client loads the meta deck catalog. It prefers a git archive, then a local
// file, then the embedded default catalog.
type Client struct {
	archivePath string
	repoURL     string
	file        string
	log         *slog.Logger
}

// NewClient creates a new meta catalog client. The archive path is only used
// when a repository URL is configured.
func NewClient(archivePath string, opts ...ClientOption) *Client {
	c := &Client{
		archivePath: archivePath,
		log:         slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load returns the current meta catalog.
func (c *Client) Load(ctx context.Context) ([]Deck, error) {
	switch {
	case c.repoURL != "":
		if err := c.pull(ctx); err != nil {
			return nil, fmt.Errorf("sync meta archive: %w", err)
		}
		return LoadDir(c.archivePath)
	case c.file != "":
		return LoadFile(c.file)
	default:
		return Default(), nil
	}
}

// LoadFile reads a TOML catalog file.
func LoadFile(path string) ([]Deck, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is user-supplied configuration.
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// LoadDir reads every TOML catalog file in a directory tree, in lexical path
// order, and concatenates their decks.
func LoadDir(dir string) ([]Deck, error) {
	paths, err := findCatalogFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("find catalog files: %w", err)
	}

	var decks []Deck
	for _, p := range paths {
		d, err := LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", filepath.Base(p), err)
		}
		decks = append(decks, d...)
	}
	return decks, nil
}

func findCatalogFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".toml") {
			paths = append(paths, path)
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	sort.Strings(paths)
	return paths, err
}

// pull clones or updates the meta archive.
func (c *Client) pull(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(c.archivePath), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var progress io.Writer
	if c.log.Enabled(ctx, slog.LevelDebug) {
		progress = os.Stderr
	}

	if _, err := os.Stat(filepath.Join(c.archivePath, ".git")); err == nil {
		c.log.Debug("Updating meta archive", "path", c.archivePath)
		r, err := git.PlainOpen(c.archivePath)
		if err != nil {
			return fmt.Errorf("open repo: %w", err)
		}
		w, err := r.Worktree()
		if err != nil {
			return fmt.Errorf("get worktree: %w", err)
		}
		if err := w.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
			return fmt.Errorf("reset worktree: %w", err)
		}
		if err := w.PullContext(ctx, &git.PullOptions{Progress: progress}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return err
		}
		return nil
	}

	c.log.Info("Cloning meta archive", "url", c.repoURL)
	_, err := git.PlainCloneContext(ctx, c.archivePath, false, &git.CloneOptions{
		URL:          c.repoURL,
		Depth:        1,
		SingleBranch: true,
		Progress:     progress,
	})
	return err
}
