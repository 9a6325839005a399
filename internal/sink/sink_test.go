package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/colek/internal/archive"
	"github.com/bamsammich/colek/internal/classify"
	"github.com/bamsammich/colek/internal/engine"
	"github.com/bamsammich/colek/internal/volume"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func config(root string) engine.Config {
	return engine.Config{
		Roots:   []volume.ScanRoot{{Path: root, Role: volume.Generic}},
		Filter:  classify.NewFilterSet(classify.Image),
		Workers: 4,
	}
}

// mediaTree writes a tree with colliding basenames and returns the
// expected source contents keyed by path.
func mediaTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{
		filepath.Join(root, "a.jpg"):             "first a",
		filepath.Join(root, "x", "a.jpg"):        "second a",
		filepath.Join(root, "x", "y", "a.jpg"):   "third a",
		filepath.Join(root, "b.png"):             strings.Repeat("png", 10000),
		filepath.Join(root, "deep", "c.gif"):     "gif",
		filepath.Join(root, "deep", "notes.txt"): "not media",
	}
	for p, c := range files {
		write(t, p, c)
	}
	delete(files, filepath.Join(root, "deep", "notes.txt"))
	return files
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func TestPrintSink(t *testing.T) {
	root := t.TempDir()
	files := mediaTree(t, root)

	var out bytes.Buffer
	p := NewPrint(&out)
	res := engine.Run[Listed](context.Background(), config(root), p)
	require.NoError(t, res.Err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(files)+1)
	for path := range files {
		assert.Contains(t, lines, "path: "+path)
	}
	assert.Regexp(t, `^5 files, `, lines[len(lines)-1])
	assert.Equal(t, int64(5), p.Count())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestPrintSinkWriteError(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.jpg"), "x")

	res := engine.Run[Listed](context.Background(), config(root), NewPrint(failingWriter{}))
	assert.ErrorIs(t, res.Err, engine.ErrIO)
	assert.ErrorIs(t, res.Err, io.ErrClosedPipe)
}

func TestCopySink(t *testing.T) {
	root := t.TempDir()
	files := mediaTree(t, root)
	dest := filepath.Join(t.TempDir(), "colek_host")

	c, err := NewCopy(CopyOptions{Dest: dest})
	require.NoError(t, err)
	res := engine.Run[Copied](context.Background(), config(root), c)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(5), c.Count())

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	var names []string
	got := make(map[string]string)
	for _, e := range entries {
		assert.False(t, e.IsDir(), "destination must be flat")
		names = append(names, e.Name())
		data, err := os.ReadFile(filepath.Join(dest, e.Name()))
		require.NoError(t, err)
		got[e.Name()] = string(data)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.jpg", "a_1.jpg", "a_2.jpg", "b.png", "c.gif"}, names)
	assert.Equal(t, sortedValues(files), sortedValues(got))
}

func TestCopySinkWithLimiter(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.jpg"), "limited")
	dest := t.TempDir()

	c, err := NewCopy(CopyOptions{Dest: dest, Limiter: engine.NewBWLimiter(1 << 20)})
	require.NoError(t, err)
	res := engine.Run[Copied](context.Background(), config(root), c)
	require.NoError(t, res.Err)

	data, err := os.ReadFile(filepath.Join(dest, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "limited", string(data))
}

func TestCopySinkThrottlesWrites(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.jpg"), strings.Repeat("j", 8<<10))
	dest := t.TempDir()

	// 8 KB at 4 KB/s with a 4 KB burst needs about a second.
	c, err := NewCopy(CopyOptions{Dest: dest, Limiter: engine.NewBWLimiter(4 << 10)})
	require.NoError(t, err)
	start := time.Now()
	require.NoError(t, engine.Run[Copied](context.Background(), config(root), c).Err)
	assert.GreaterOrEqual(t, time.Since(start), 700*time.Millisecond)

	info, err := os.Stat(filepath.Join(dest, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, int64(8<<10), info.Size())
}

func TestCopySinkDestinationInsideRoot(t *testing.T) {
	root := t.TempDir()
	for i := range 200 {
		write(t, filepath.Join(root, "a", fmt.Sprintf("img%03d.jpg", i)), fmt.Sprintf("image %d", i))
	}
	dest := filepath.Join(root, "z")

	c, err := NewCopy(CopyOptions{Dest: dest})
	require.NoError(t, err)
	cfg := config(root)
	cfg.ScanWorkers = 1
	require.NoError(t, engine.Run[Copied](context.Background(), cfg, c).Err)

	assert.Equal(t, int64(200), c.Count())
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 200)
}

func TestCopySinkRelativeDestinationInsideRoot(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.jpg"), "a")
	t.Chdir(root)

	c, err := NewCopy(CopyOptions{Dest: "out"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "out"), c.Dest())
	require.NoError(t, engine.Run[Copied](context.Background(), config(root), c).Err)

	entries, err := os.ReadDir(filepath.Join(root, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCopySinkEmptyRun(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "readme.txt"), "nothing to see")
	dest := filepath.Join(t.TempDir(), "out", "nested")

	c, err := NewCopy(CopyOptions{Dest: dest})
	require.NoError(t, err)
	res := engine.Run[Copied](context.Background(), config(root), c)
	require.NoError(t, res.Err)

	assert.DirExists(t, dest)
	assert.Zero(t, c.Count())
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCopySinkDestinationError(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	write(t, parent, "x")

	_, err := NewCopy(CopyOptions{Dest: filepath.Join(parent, "dest")})
	assert.ErrorIs(t, err, engine.ErrIO)

	_, err = NewCopy(CopyOptions{})
	assert.ErrorIs(t, err, engine.ErrConfig)
}

func TestCopySinkKeepsExistingFiles(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.jpg"), "new")
	dest := t.TempDir()
	write(t, filepath.Join(dest, "a.jpg"), "old")

	c, err := NewCopy(CopyOptions{Dest: dest})
	require.NoError(t, err)
	require.NoError(t, engine.Run[Copied](context.Background(), config(root), c).Err)

	old, err := os.ReadFile(filepath.Join(dest, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
	fresh, err := os.ReadFile(filepath.Join(dest, "a_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(fresh))
}

func TestArchiveSinkRoundTrip(t *testing.T) {
	for _, method := range []archive.Method{archive.Deflate, archive.Zstd} {
		t.Run(method.String(), func(t *testing.T) {
			root := t.TempDir()
			files := mediaTree(t, root)
			dest := filepath.Join(t.TempDir(), "colek_host.zip")

			a, err := NewArchive(ArchiveOptions{Path: dest, Method: method, Level: archive.DefaultLevel})
			require.NoError(t, err)
			res := engine.Run[Archived](context.Background(), config(root), a)
			require.NoError(t, res.Err)
			assert.Equal(t, int64(5), a.Count())

			r, err := archive.OpenReader(dest)
			require.NoError(t, err)
			defer r.Close()

			var names []string
			got := make(map[string]string)
			for _, f := range r.File {
				names = append(names, f.Name)
				rc, err := f.Open()
				require.NoError(t, err)
				data, err := io.ReadAll(rc)
				require.NoError(t, err)
				rc.Close()
				got[f.Name] = string(data)
			}
			sort.Strings(names)
			assert.Equal(t, []string{"a.jpg", "a_1.jpg", "a_2.jpg", "b.png", "c.gif"}, names)
			assert.Equal(t, sortedValues(files), sortedValues(got))
			assert.Equal(t, files[filepath.Join(root, "b.png")], got["b.png"])
		})
	}
}

func TestArchiveSinkOutputInsideRoot(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.jpg"), "a")
	// Left by an earlier run under the same name.
	out := filepath.Join(root, "bundle.jpg")
	write(t, out, "previous archive")

	a, err := NewArchive(ArchiveOptions{Path: out, Method: archive.Deflate, Level: archive.DefaultLevel})
	require.NoError(t, err)
	require.NoError(t, engine.Run[Archived](context.Background(), config(root), a).Err)
	assert.Equal(t, int64(1), a.Count())

	r, err := archive.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 1)
	assert.Equal(t, "a.jpg", r.File[0].Name)
}

func TestArchiveSinkPartialEntry(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	root := t.TempDir()
	src := filepath.Join(root, "a.jpg")
	write(t, src, strings.Repeat("a", 4096))
	out := filepath.Join(t.TempDir(), "out.zip")

	a, err := NewArchive(ArchiveOptions{
		Path:    out,
		Method:  archive.Deflate,
		Level:   archive.DefaultLevel,
		Limiter: engine.NewBWLimiter(1 << 20),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Transform(ctx, engine.NewEntry(volume.ScanRoot{Path: root, Role: volume.Generic}, src, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrArchive)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, logs.String(), "partial archive entry")
	assert.Contains(t, logs.String(), src)

	require.NoError(t, a.Finish())
}

func TestArchiveSinkOpenError(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	write(t, parent, "x")
	_, err := NewArchive(ArchiveOptions{Path: filepath.Join(parent, "x.zip"), Level: 1})
	assert.ErrorIs(t, err, engine.ErrArchive)
}

func TestSuffixName(t *testing.T) {
	assert.Equal(t, "a.jpg", suffixName("a.jpg", 0))
	assert.Equal(t, "a_1.jpg", suffixName("a.jpg", 1))
	assert.Equal(t, "archive.tar_2.gz", suffixName("archive.tar.gz", 2))
	assert.Equal(t, "noext_3", suffixName("noext", 3))
	assert.Equal(t, ".jpg_1", suffixName(".jpg", 1))
}

func TestNameSet(t *testing.T) {
	s := newNameSet()
	assert.Equal(t, "a.jpg", s.claim("a.jpg"))
	assert.Equal(t, "a_1.jpg", s.claim("a.jpg"))
	assert.Equal(t, "a_1_1.jpg", s.claim("a_1.jpg"))
	assert.Equal(t, "a_2.jpg", s.claim("a.jpg"))
}

func TestUsableName(t *testing.T) {
	assert.True(t, usableName("a.jpg"))
	for _, bad := range []string{"", ".", "..", "/"} {
		assert.False(t, usableName(bad), bad)
	}
}
