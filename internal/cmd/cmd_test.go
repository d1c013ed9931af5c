package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dendrascience/wadfs/internal/config"
	"github.com/dendrascience/wadfs/wad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns what it printed to
// standard output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvConfig, "")
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	require.NoError(t, err, "wadfs %s", strings.Join(args, " "))
	return out
}

func TestCommands_EditSession(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "edit.wad")
	src := filepath.Join(dir, "lump.bin")
	require.NoError(t, os.WriteFile(src, []byte("from a file"), 0o644))

	mustRun(t, "", "init", archive)
	mustRun(t, "", "mkdir", archive, "S", "/F/")
	mustRun(t, "", "touch", archive, "/S/A")
	mustRun(t, "from stdin", "put", archive, "/S/B")
	mustRun(t, "", "put", archive, "S/A", src)

	assert.Equal(t, "from a file", mustRun(t, "", "cat", archive, "/S/A"))
	assert.Equal(t, "stdin", mustRun(t, "", "cat", "--offset", "5", archive, "/S/B"))
	assert.Equal(t, "S/\nF/\n", mustRun(t, "", "ls", archive))
	assert.Equal(t, "A\nB\n", mustRun(t, "", "ls", archive, "S"))
	assert.Equal(t, "/S/\n/S/A\n/S/B\n/F/\n", mustRun(t, "", "ls", "-R", archive))

	long := mustRun(t, "", "ls", "-l", archive, "/S/")
	assert.Contains(t, long, "written")
	assert.Contains(t, long, "11")

	_, err := run(t, "again", "put", archive, "/S/B")
	assert.ErrorIs(t, err, wad.ErrImmutable)
	_, err = run(t, "", "mkdir", archive, "/TOO/")
	assert.ErrorIs(t, err, wad.ErrInvalidName)
	_, err = run(t, "", "cat", archive, "/S")
	assert.ErrorIs(t, err, wad.ErrIsDirectory)

	info := mustRun(t, "", "info", archive)
	assert.Contains(t, info, "Magic:        PWAD")
	assert.Contains(t, info, "Namespaces:   2")
	assert.Contains(t, info, "Lumps:        2 written, 0 placeholders, 0 empty")
	assert.Contains(t, info, "Structure:    ok")

	out := mustRun(t, "", "validate", archive)
	assert.Contains(t, out, "Total anomalies: 0")
}

func TestCommands_BackupRestore(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "doom.wad")
	snap := filepath.Join(dir, "doom.snap.zst")

	mustRun(t, "", "init", "--iwad", archive)
	mustRun(t, "pal", "put", archive, "/PLAYPAL")
	before, err := os.ReadFile(archive)
	require.NoError(t, err)

	out := mustRun(t, "", "backup", "-o", snap, archive)
	assert.Contains(t, out, snap)

	mustRun(t, "", "touch", archive, "/EXTRA")
	assert.Equal(t, "PLAYPAL\nEXTRA\n", mustRun(t, "", "ls", archive))

	held, err := wad.Open(archive, wad.Options{})
	require.NoError(t, err)
	_, err = run(t, "", "restore", snap, archive)
	assert.ErrorIs(t, err, wad.ErrLocked)
	require.NoError(t, held.Close())

	mustRun(t, "", "restore", snap, archive)
	after, err := os.ReadFile(archive)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "PLAYPAL\n", mustRun(t, "", "ls", archive))
}

func TestCommands_PutWithBackup(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.wad")
	snaps := filepath.Join(dir, "snaps")
	require.NoError(t, os.Mkdir(snaps, 0o755))

	mustRun(t, "", "init", archive)
	mustRun(t, "x", "put", "--backup", "--snapshot-dir", snaps, archive, "/X")

	entries, err := os.ReadDir(snaps)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "snapshot and its digest")
}

func TestCommands_ValidateAnomalies(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.wad")
	bad := filepath.Join(dir, "bad.wad")
	require.NoError(t, wad.Create(good, "PWAD", []wad.Lump{{Name: "OK", Data: []byte("1")}}))
	require.NoError(t, wad.Create(bad, "PWAD", []wad.Lump{
		{Name: "S_END"},
		{Name: "DUP", Data: []byte("1")},
		{Name: "DUP", Data: []byte("2")},
	}))

	out, err := run(t, "", "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "bad.wad has 2 anomalies")
	assert.NotContains(t, out, "good.wad has")
	assert.Contains(t, out, "Archives checked: 2")

	// strict loading refuses the archive but the report is the same
	out, err = run(t, "", "--strict", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, out, "bad.wad has 2 anomalies")
}

func TestCommands_Seed(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "seed.wad")

	mustRun(t, "", "seed", "-o", archive, "-c", "2500", "-m", "2")

	assert.Equal(t, "E1M1/\nE1M2/\n00/\n01/\n02/\n", mustRun(t, "", "ls", archive))
	lumps := strings.Fields(mustRun(t, "", "ls", archive, "/02/"))
	assert.Len(t, lumps, 500)
	assert.Equal(t, "L002000", lumps[0])
	assert.Contains(t, mustRun(t, "", "validate", archive), "Total anomalies: 0")

	_, err := run(t, "", "seed", "-o", archive, "-m", "100")
	assert.Error(t, err)
}

func TestSeedDirName(t *testing.T) {
	tests := map[int]string{0: "00", 9: "09", 10: "0A", 35: "0Z", 36: "10", 999: "RR"}
	for k, want := range tests {
		assert.Equal(t, want, seedDirName(k), "seedDirName(%d)", k)
	}
}

func TestRootCmd_Groups(t *testing.T) {
	root := NewRootCmd()
	want := []string{"mount", "ls", "cat", "info", "mkdir", "touch", "put", "validate", "init", "seed", "backup", "restore", "version"}
	for _, name := range want {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
		assert.NotEmpty(t, c.GroupID, name)
	}
}
