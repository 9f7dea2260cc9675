package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"dlna-server/internal/mediatypes"
	"dlna-server/internal/transcoder"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestTree(t *testing.T) *FileTree {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"show/ep1.mkv":     "video-1",
		"show/ep1.jpg":     "jpeg",
		"show/ep1.srt":     "1\n00:00:01,000 --> 00:00:02,000\nhi\n",
		"show/ep2.mkv":     "video-2",
		"show/.hidden.mkv": "secret",
		"movie.mp4":        "movie",
		"notes.txt":        "text",
	})
	return NewFileTree(root, "Media", nil)
}

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID())
	}
	slices.Sort(out)
	return out
}

func TestLookupRoot(t *testing.T) {
	tree := newTestTree(t)

	for _, id := range []string{"0", ""} {
		root, err := tree.Lookup(id)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", id, err)
		}
		if root.ID() != RootID || root.ParentID() != "-1" {
			t.Errorf("root ids = %s/%s", root.ID(), root.ParentID())
		}
		if root.Title() != "Media" {
			t.Errorf("root title = %q", root.Title())
		}
		if root.FileType() != mediatypes.FileTypeDirectory {
			t.Errorf("root type = %s", root.FileType())
		}
	}
}

func TestLookupNotFound(t *testing.T) {
	tree := newTestTree(t)

	for _, id := range []string{
		"missing.mkv",
		"../etc/passwd",
		"show/../../x",
		"/show",
		"show//ep1.mkv",
		"show/.hidden.mkv",
		"./show",
	} {
		t.Run(id, func(t *testing.T) {
			if _, err := tree.Lookup(id); !errors.Is(err, ErrNotFound) {
				t.Errorf("Lookup(%q) = %v, want ErrNotFound", id, err)
			}
		})
	}
}

func TestEntryAttributes(t *testing.T) {
	tree := newTestTree(t)

	tests := []struct {
		id       string
		parent   string
		title    string
		fileType mediatypes.FileType
		class    string
		prefix   string
	}{
		{"show", "0", "show", mediatypes.FileTypeDirectory, mediatypes.ClassStorageFolder, "show/"},
		{"show/ep1.mkv", "show", "ep1", mediatypes.FileTypeVideo, mediatypes.ClassVideoItem, "show/ep1."},
		{"show/ep1.jpg", "show", "ep1", mediatypes.FileTypeImage, mediatypes.ClassPhoto, "show/ep1."},
		{"show/ep1.srt", "show", "ep1", mediatypes.FileTypeSubtitles, mediatypes.ClassTextItem, "show/ep1."},
		{"movie.mp4", "0", "movie", mediatypes.FileTypeVideo, mediatypes.ClassVideoItem, "movie."},
		{"notes.txt", "0", "notes", mediatypes.FileTypeOther, mediatypes.ClassItem, "notes."},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, err := tree.Lookup(tt.id)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if e.ID() != tt.id {
				t.Errorf("ID = %q", e.ID())
			}
			if e.ParentID() != tt.parent {
				t.Errorf("ParentID = %q, want %q", e.ParentID(), tt.parent)
			}
			if e.Title() != tt.title {
				t.Errorf("Title = %q, want %q", e.Title(), tt.title)
			}
			if e.FileType() != tt.fileType {
				t.Errorf("FileType = %s, want %s", e.FileType(), tt.fileType)
			}
			if e.DLNAClass() != tt.class {
				t.Errorf("DLNAClass = %s, want %s", e.DLNAClass(), tt.class)
			}
			if e.Prefix() != tt.prefix {
				t.Errorf("Prefix = %q, want %q", e.Prefix(), tt.prefix)
			}
		})
	}
}

func TestChildren(t *testing.T) {
	tree := newTestTree(t)

	root, _ := tree.Lookup(RootID)
	children, err := root.Children()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ids(children), []string{"movie.mp4", "notes.txt", "show"}; !slices.Equal(got, want) {
		t.Errorf("root children = %v, want %v", got, want)
	}

	show, _ := tree.Lookup("show")
	children, err = show.Children()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"show/ep1.jpg", "show/ep1.mkv", "show/ep1.srt", "show/ep2.mkv"}
	if got := ids(children); !slices.Equal(got, want) {
		t.Errorf("show children = %v, want %v", got, want)
	}

	file, _ := tree.Lookup("movie.mp4")
	if children, _ := file.Children(); len(children) != 0 {
		t.Errorf("file has children %v", ids(children))
	}
}

func TestBody(t *testing.T) {
	tree := newTestTree(t)

	e, err := tree.Lookup("show/ep2.mkv")
	if err != nil {
		t.Fatal(err)
	}

	body, err := e.Body(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()

	if total := *body.Size().Total; total != uint64(len("video-2")) {
		t.Errorf("size = %d", total)
	}

	var got []byte
	for c := range body.ReadAll(context.Background()) {
		if c.Err != nil {
			t.Fatal(c.Err)
		}
		got = append(got, c.Data...)
	}
	if string(got) != "video-2" {
		t.Errorf("body = %q", got)
	}

	dir, _ := tree.Lookup("show")
	if _, err := dir.Body(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("directory body = %v, want ErrNotFound", err)
	}
}

type stubProber struct {
	paths []string
}

func (s *stubProber) Probe(_ context.Context, path string) (transcoder.SourceFormat, error) {
	s.paths = append(s.paths, path)
	return transcoder.SourceFormat{Path: path, VideoCodec: "h264"}, nil
}

func TestFormat(t *testing.T) {
	prober := &stubProber{}
	tree := newTestTree(t)
	tree.prober = prober

	e, _ := tree.Lookup("movie.mp4")
	src, err := e.Format(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if src.Path != filepath.Join(tree.Root(), "movie.mp4") {
		t.Errorf("probed %q", src.Path)
	}

	img, _ := tree.Lookup("show/ep1.jpg")
	if _, err := img.Format(context.Background()); err == nil {
		t.Error("images have no video format")
	}
	if len(prober.paths) != 1 {
		t.Errorf("prober called %d times", len(prober.paths))
	}
}

func TestWatchInvalidatesListings(t *testing.T) {
	tree := newTestTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	waitUntil := func(cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !cond() {
			if time.Now().After(deadline) {
				t.Fatal("condition not met before deadline")
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitUntil(func() bool {
		tree.mu.RLock()
		defer tree.mu.RUnlock()
		return tree.watching
	})

	show, _ := tree.Lookup("show")
	first, err := show.Children()
	if err != nil {
		t.Fatal(err)
	}

	tree.mu.RLock()
	_, cached := tree.listings["show"]
	tree.mu.RUnlock()
	if !cached {
		t.Fatal("listing not cached while watching")
	}

	writeFiles(t, tree.Root(), map[string]string{"show/ep3.mkv": "video-3"})

	waitUntil(func() bool {
		children, err := show.Children()
		return err == nil && len(children) == len(first)+1
	})
}

func TestNoCachingWithoutWatch(t *testing.T) {
	tree := newTestTree(t)

	show, _ := tree.Lookup("show")
	before, _ := show.Children()

	writeFiles(t, tree.Root(), map[string]string{"show/ep3.mkv": "video-3"})

	after, _ := show.Children()
	if len(after) != len(before)+1 {
		t.Errorf("children = %d, want %d", len(after), len(before)+1)
	}
}
