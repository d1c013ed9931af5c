package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestSaveRestore(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("PWAD lump data "), 1000)
	src := writeFile(t, dir, "doom.wad", content)

	for level := 1; level <= 4; level++ {
		backup := filepath.Join(dir, "doom.wad"+Ext)
		d, err := Save(src, backup, level)
		require.NoError(t, err)

		want, err := SumFile(src)
		require.NoError(t, err)
		assert.Equal(t, want, d)

		info, err := os.Stat(backup)
		require.NoError(t, err)
		assert.Less(t, info.Size(), int64(len(content)), "level %d should compress", level)

		require.NoError(t, os.WriteFile(src, []byte("clobbered"), 0o644))
		got, err := Restore(backup, src)
		require.NoError(t, err)
		assert.Equal(t, d, got)

		restored, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, content, restored)
	}
}

func TestRestore_DigestMismatch(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "a.wad", []byte("original"))
	backup := filepath.Join(dir, "a.wad"+Ext)
	_, err := Save(src, backup, 2)
	require.NoError(t, err)

	other, err := Sum(strings.NewReader("something else"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(backup+DigestExt, []byte(other.String()+"  a.wad\n"), 0o644))

	target := writeFile(t, dir, "target.wad", []byte("untouched"))
	_, err = Restore(backup, target)
	assert.ErrorIs(t, err, ErrDigestMismatch)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "untouched", string(data))
}

func TestRestore_NoDigest(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "a.wad", []byte("original"))
	backup := filepath.Join(dir, "a.wad"+Ext)
	_, err := Save(src, backup, 1)
	require.NoError(t, err)
	require.NoError(t, os.Remove(backup+DigestExt))

	_, err = Restore(backup, src)
	assert.ErrorIs(t, err, ErrNoDigest)
}

func TestParseDigest(t *testing.T) {
	d, err := Sum(strings.NewReader("abc"))
	require.NoError(t, err)

	parsed, err := ParseDigest(d.String() + "\n")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDigest("zz")
	assert.Error(t, err)
	_, err = ParseDigest("abcd")
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

	assert.Equal(t, "/data/doom.wad.20240309T140506Z.zst", Name("/data/doom.wad", "", now))
	assert.Equal(t, "/backups/doom.wad.20240309T140506Z.zst", Name("/data/doom.wad", "/backups", now))
}

func TestSaveRestore_KeepsPermissions(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "doom.wad", []byte("PWAD"))
	require.NoError(t, os.Chmod(src, 0o640))

	backup := filepath.Join(dir, "doom.wad"+Ext)
	_, err := Save(src, backup, 2)
	require.NoError(t, err)
	info, err := os.Stat(backup)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	// an existing archive keeps its own mode
	require.NoError(t, os.Chmod(src, 0o664))
	_, err = Restore(backup, src)
	require.NoError(t, err)
	info, err = os.Stat(src)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o664), info.Mode().Perm())

	// a fresh target takes the snapshot's mode
	fresh := filepath.Join(dir, "fresh.wad")
	_, err = Restore(backup, fresh)
	require.NoError(t, err)
	info, err = os.Stat(fresh)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}
