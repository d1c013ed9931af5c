package wad

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var mapLumpNames = []string{
	"THINGS", "LINEDEFS", "SIDEDEFS", "VERTEXES", "SEGS",
	"SSECTORS", "NODES", "SECTORS", "REJECT", "BLOCKMAP",
}

func mapGroup(name string) []Lump {
	lumps := []Lump{{Name: name}}
	for _, n := range mapLumpNames {
		lumps = append(lumps, Lump{Name: n, Data: []byte(name + ":" + n)})
	}
	return lumps
}

// doomLumps is a small archive exercising every structural convention.
func doomLumps() []Lump {
	lumps := []Lump{{Name: "PLAYPAL", Data: []byte("pal")}}
	lumps = append(lumps, mapGroup("E1M1")...)
	lumps = append(lumps,
		Lump{Name: "S_START"},
		Lump{Name: "SPR1", Data: []byte("aaa")},
		Lump{Name: "SPR2", Data: []byte("bbbb")},
		Lump{Name: "SPR3", Data: []byte("c")},
		Lump{Name: "S_END"},
		Lump{Name: "F_START"},
		Lump{Name: "F1_START"},
		Lump{Name: "FLAT1", Data: []byte("ff")},
		Lump{Name: "F1_END"},
		Lump{Name: "F_END"},
		Lump{Name: "ENDOOM", Data: []byte("bye")},
	)
	return lumps
}

func writeWAD(t *testing.T, lumps ...Lump) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wad")
	require.NoError(t, Create(path, "PWAD", lumps))
	return path
}

func openWAD(t *testing.T, path string) *Archive {
	t.Helper()
	a, err := Open(path, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

// reopen closes a and loads the same file again.
func reopen(t *testing.T, a *Archive) *Archive {
	t.Helper()
	require.NoError(t, a.Close())
	return openWAD(t, a.Path())
}

func readAll(t *testing.T, a *Archive, path string) string {
	t.Helper()
	size, err := a.Size(path)
	require.NoError(t, err)
	buf := make([]byte, size)
	n, err := a.Read(path, buf, 0)
	require.NoError(t, err)
	return string(buf[:n])
}

func fileBytes(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}
