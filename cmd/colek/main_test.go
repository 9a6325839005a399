package main

import (
	"bytes"
	"os"
	"path/filepath"
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

func runCLI(t *testing.T, lister volume.Lister, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd(lister)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// mediaTree builds a.jpg, b.txt and sub/c.mp4 under a fresh directory and
// points the config lookup at an empty directory.
func mediaTree(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("jpeg data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.mp4"), []byte("video data"), 0o644))
	return dir
}

func TestFilterFlag(t *testing.T) {
	f := newFilterFlag()
	assert.Equal(t, classify.NewFilterSet(classify.Image), f.set)

	require.NoError(t, f.Set("video,music"))
	assert.Equal(t, classify.NewFilterSet(classify.Video, classify.Music), f.set)

	require.NoError(t, f.Set("image"))
	assert.Equal(t, classify.NewFilterSet(classify.Image, classify.Video, classify.Music), f.set)

	assert.Error(t, f.Set("documents"))
}

func TestStdoutListsMatches(t *testing.T) {
	dir := mediaTree(t)

	out, _, err := runCLI(t, volume.Static{}, "stdout", "--root", dir, "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "path: "+filepath.Join(dir, "a.jpg")+"\n")
	assert.NotContains(t, out, "b.txt")
	assert.NotContains(t, out, "c.mp4")
	assert.Contains(t, out, "1 files")

	out, _, err = runCLI(t, volume.Static{}, "stdout", "--root", dir, "-q", "--filter", "image,video")
	require.NoError(t, err)
	assert.Contains(t, out, "path: "+filepath.Join(dir, "sub", "c.mp4")+"\n")
	assert.Contains(t, out, "2 files")
}

func TestStdoutExcludeRule(t *testing.T) {
	dir := mediaTree(t)

	out, _, err := runCLI(t, volume.Static{}, "stdout", "--root", dir, "-q",
		"--filter", "image,video", "--exclude", "sub/")
	require.NoError(t, err)
	assert.Contains(t, out, "a.jpg")
	assert.NotContains(t, out, "c.mp4")
}

func TestCopyToTarget(t *testing.T) {
	dir := mediaTree(t)
	dst := filepath.Join(t.TempDir(), "out")

	_, _, err := runCLI(t, volume.Static{}, "copy", "--root", dir, "--target", dst, "-q")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg data", string(data))
	assert.NoFileExists(t, filepath.Join(dst, "b.txt"))
}

func TestCopyDefaultsToRemovableDrive(t *testing.T) {
	dir := mediaTree(t)
	usb := t.TempDir()
	lister := volume.Static{{Path: usb, Name: "/dev/sdb1", Role: volume.Removable}}

	_, _, err := runCLI(t, lister, "copy", "--root", dir, "-q")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(usb, volume.DefaultName(""), "a.jpg"))
}

func TestZipOutput(t *testing.T) {
	dir := mediaTree(t)
	out := filepath.Join(t.TempDir(), "media.zip")

	_, _, err := runCLI(t, volume.Static{}, "zip", "--root", dir, "--output", out, "--zstd", "-q")
	require.NoError(t, err)

	r, err := archive.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 1)
	assert.Equal(t, "a.jpg", r.File[0].Name)
}

// modTimes orders duplicates by mtime for the duration of the test.
func modTimes(t *testing.T) {
	t.Helper()
	orig := createdAt
	createdAt = func(path string) (time.Time, error) {
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, err
		}
		return info.ModTime(), nil
	}
	t.Cleanup(func() { createdAt = orig })
}

func TestHashPrintsDuplicates(t *testing.T) {
	modTimes(t)
	dir := mediaTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "copy.jpg"), []byte("jpeg data"), 0o644))

	out, _, err := runCLI(t, volume.Static{}, "hash", "--root", dir, "-q", "--algo", "xxhash")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "DUPLICATE"))
	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
	assert.FileExists(t, filepath.Join(dir, "copy.jpg"))
}

func TestHashRemoveKeepsOlderCopy(t *testing.T) {
	modTimes(t)
	dir := mediaTree(t)
	dup := filepath.Join(dir, "copy.jpg")
	require.NoError(t, os.WriteFile(dup, []byte("jpeg data"), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(dup, later, later))

	_, _, err := runCLI(t, volume.Static{}, "hash", "--root", dir, "-q", "--duplicate", "remove", "--verify")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
	assert.NoFileExists(t, dup)
}

func TestSetupErrors(t *testing.T) {
	dir := mediaTree(t)

	tests := []struct {
		name   string
		lister volume.Lister
		args   []string
		target error
	}{
		{"missing root", volume.Static{}, []string{"stdout", "--root", filepath.Join(dir, "nope")}, engine.ErrConfig},
		{"root is a file", volume.Static{}, []string{"stdout", "--root", filepath.Join(dir, "a.jpg")}, engine.ErrConfig},
		{"no generic volume", volume.Static{{Path: "/", Role: volume.Root}}, []string{"stdout"}, volume.ErrNoGenericVolume},
		{"bad duplicate action", volume.Static{}, []string{"hash", "--root", dir, "--duplicate", "shred"}, engine.ErrConfig},
		{"bad algo", volume.Static{}, []string{"hash", "--root", dir, "--algo", "md5"}, engine.ErrConfig},
		{"bad bwlimit", volume.Static{}, []string{"copy", "--root", dir, "--bwlimit", "fast"}, engine.ErrConfig},
		{"bad size", volume.Static{}, []string{"stdout", "--root", dir, "--min-size=-1"}, engine.ErrConfig},
		{"empty filter", volume.Static{}, []string{"stdout", "--root", dir, "--filter", ","}, engine.ErrConfig},
		{"bad level", volume.Static{}, []string{"zip", "--root", dir, "--output", filepath.Join(dir, "x.zip"), "--level", "12"}, engine.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.lister, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var exitErr *exitError
			assert.NotErrorAs(t, err, &exitErr, "setup errors map to exit code 2 in run")
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	dir := mediaTree(t)
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	require.NoError(t, os.MkdirAll(filepath.Join(cfgHome, "colek"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgHome, "colek", "config.toml"),
		[]byte("[defaults]\nfilter = [\"video\"]\nworkers = 2\n"), 0o644))

	out, _, err := runCLI(t, volume.Static{}, "stdout", "--root", dir, "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "c.mp4")
	assert.NotContains(t, out, "a.jpg")

	// Flags given on the command line win.
	out, _, err = runCLI(t, volume.Static{}, "stdout", "--root", dir, "-q", "--filter", "image")
	require.NoError(t, err)
	assert.Contains(t, out, "a.jpg")
	assert.NotContains(t, out, "c.mp4")
}

func TestJSONLogRecordsEvents(t *testing.T) {
	dir := mediaTree(t)
	logPath := filepath.Join(t.TempDir(), "run.log")

	_, _, err := runCLI(t, volume.Static{}, "stdout", "--root", dir, "-q", "--log", logPath)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"colek.event"`)
	assert.Contains(t, string(data), filepath.Join(dir, "a.jpg"))
}

func TestSummaryOnStderr(t *testing.T) {
	dir := mediaTree(t)

	out, errOut, err := runCLI(t, volume.Static{}, "stdout", "--root", dir)
	require.NoError(t, err)
	assert.NotEmpty(t, errOut)
	assert.NotContains(t, errOut, "path: ")
	assert.Contains(t, out, "path: ")
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, volume.Static{}, "--version")
	require.NoError(t, err)
	assert.Equal(t, "colek dev\n", out)
}

func TestGenDocs(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, volume.Static{}, "gen-docs", "--format", "markdown", "--dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "colek.md"))
	assert.FileExists(t, filepath.Join(dir, "colek_hash.md"))

	_, _, err = runCLI(t, volume.Static{}, "gen-docs", "--format", "pdf", "--dir", dir)
	assert.Error(t, err)
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit code 1", (&exitError{code: 1}).Error())
}
