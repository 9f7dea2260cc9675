package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"dlna-server/internal/filesystem"
	"dlna-server/internal/mediatypes"
	"dlna-server/internal/streaming"
	"dlna-server/internal/transcoder"
)

// RootID is the id of the top-level container.
const RootID = "0"

// rootParentID is the ParentID UPnP expects for the root container.
const rootParentID = "-1"

// ErrNotFound is returned for ids that do not name an entry.
var ErrNotFound = errors.New("media: not found")

// Entry is one object of the media tree.
type Entry interface {
	ID() string
	ParentID() string
	Title() string
	FileType() mediatypes.FileType
	DLNAClass() string
	// Prefix is shared by an entry and its sibling support files: a video's
	// id without its extension plus ".", or a directory's id plus "/".
	Prefix() string
	// Path is the location on disk.
	Path() string
	Children() ([]Entry, error)
	Body(ctx context.Context) (*streaming.FileMedia, error)
	Format(ctx context.Context) (transcoder.SourceFormat, error)
}

// Tree resolves ids to entries.
type Tree interface {
	Lookup(id string) (Entry, error)
}

// Prober inspects media files. transcoder.Transcoder implements it.
type Prober interface {
	Probe(ctx context.Context, path string) (transcoder.SourceFormat, error)
}

// FileTree is a read-only Tree over a directory. Ids are slash-separated
// paths relative to the root. Hidden files are invisible.
type FileTree struct {
	root   string
	title  string
	prober Prober
	fs     filesystem.Policy

	mu       sync.RWMutex
	watching bool
	gen      uint64 // bumped by Invalidate
	listings map[string][]Entry
}

// NewFileTree creates a tree rooted at dir. title names the root container.
func NewFileTree(dir, title string, prober Prober) *FileTree {
	return &FileTree{
		root:     filepath.Clean(dir),
		title:    title,
		prober:   prober,
		fs:       filesystem.DefaultPolicy(),
		listings: make(map[string][]Entry),
	}
}

// Root returns the directory the tree serves.
func (t *FileTree) Root() string {
	return t.root
}

// cleanID validates id and returns it in canonical form, with "" for the root.
func cleanID(id string) (string, bool) {
	if id == RootID || id == "" {
		return "", true
	}
	if strings.HasPrefix(id, "/") || strings.Contains(id, "\\") || path.Clean(id) != id {
		return "", false
	}
	for _, seg := range strings.Split(id, "/") {
		// Also rejects "." and ".." segments.
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	return id, true
}

// Lookup implements Tree.
func (t *FileTree) Lookup(id string) (Entry, error) {
	rel, ok := cleanID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	full := filepath.Join(t.root, filepath.FromSlash(rel))
	info, err := t.fs.Stat(context.Background(), full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("stat %s: %w", full, err)
	}

	return t.entry(rel, info.IsDir()), nil
}

func (t *FileTree) entry(rel string, isDir bool) *fileEntry {
	e := &fileEntry{tree: t, rel: rel, dir: isDir}
	if isDir {
		e.fileType = mediatypes.FileTypeDirectory
	} else {
		e.fileType = mediatypes.GetFileType(strings.ToLower(path.Ext(rel)))
	}
	return e
}

// Invalidate drops the cached listing of the directory with the given id.
func (t *FileTree) Invalidate(id string) {
	rel, ok := cleanID(id)
	if !ok {
		return
	}
	t.mu.Lock()
	delete(t.listings, rel)
	t.gen++
	t.mu.Unlock()
}

func (t *FileTree) children(e *fileEntry) ([]Entry, error) {
	t.mu.RLock()
	cached, ok := t.listings[e.rel]
	watching := t.watching
	gen := t.gen
	t.mu.RUnlock()
	if ok {
		return slices.Clone(cached), nil
	}

	dirEntries, err := t.fs.ReadDir(context.Background(), e.Path())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", e.Path(), err)
	}

	list := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		isDir := de.IsDir()
		if de.Type()&os.ModeSymlink != 0 {
			info, err := t.fs.Stat(context.Background(), filepath.Join(e.Path(), name))
			if err != nil {
				// Dangling link.
				continue
			}
			isDir = info.IsDir()
		}

		list = append(list, t.entry(path.Join(e.rel, name), isDir))
	}

	// Listings are only cached while a watcher keeps them fresh.
	if watching {
		t.mu.Lock()
		if t.gen == gen && t.watching {
			t.listings[e.rel] = list
		}
		t.mu.Unlock()
		list = slices.Clone(list)
	}

	return list, nil
}

type fileEntry struct {
	tree     *FileTree
	rel      string
	dir      bool
	fileType mediatypes.FileType
}

func (e *fileEntry) ID() string {
	if e.rel == "" {
		return RootID
	}
	return e.rel
}

func (e *fileEntry) ParentID() string {
	if e.rel == "" {
		return rootParentID
	}
	parent := path.Dir(e.rel)
	if parent == "." {
		return RootID
	}
	return parent
}

func (e *fileEntry) Title() string {
	if e.rel == "" {
		return e.tree.title
	}
	name := path.Base(e.rel)
	if e.dir {
		return name
	}
	if title := strings.TrimSuffix(name, path.Ext(name)); title != "" {
		return title
	}
	return name
}

func (e *fileEntry) FileType() mediatypes.FileType {
	return e.fileType
}

func (e *fileEntry) DLNAClass() string {
	return mediatypes.DLNAClass(e.fileType)
}

func (e *fileEntry) Prefix() string {
	if e.dir {
		if e.rel == "" {
			return ""
		}
		return e.rel + "/"
	}
	return strings.TrimSuffix(e.rel, path.Ext(e.rel)) + "."
}

func (e *fileEntry) Path() string {
	return filepath.Join(e.tree.root, filepath.FromSlash(e.rel))
}

func (e *fileEntry) Children() ([]Entry, error) {
	if !e.dir {
		return nil, nil
	}
	return e.tree.children(e)
}

// Body opens the file for reading. The caller closes the returned media.
func (e *fileEntry) Body(ctx context.Context) (*streaming.FileMedia, error) {
	if e.dir {
		return nil, fmt.Errorf("%w: %q is a directory", ErrNotFound, e.ID())
	}

	f, err := e.tree.fs.Open(ctx, e.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, e.ID())
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", e.Path(), err)
	}

	return streaming.NewFileMedia(f, info.Size()), nil
}

func (e *fileEntry) Format(ctx context.Context) (transcoder.SourceFormat, error) {
	if e.fileType != mediatypes.FileTypeVideo {
		return transcoder.SourceFormat{}, fmt.Errorf("%w: %q is not a video", ErrNotFound, e.ID())
	}
	if e.tree.prober == nil {
		return transcoder.SourceFormat{}, errors.New("media: no prober configured")
	}
	return e.tree.prober.Probe(ctx, e.Path())
}
