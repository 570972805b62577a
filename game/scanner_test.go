package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamescraper/models"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("rom"), 0o644))
}

func TestScanFolder(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Super Metroid (USA).sfc"))
	touch(t, filepath.Join(dir, "sub", "Super Mario World (U) [!].ZIP"))
	touch(t, filepath.Join(dir, "readme.txt"))
	touch(t, filepath.Join(dir, ".hidden", "Secret.zip"))
	touch(t, filepath.Join(dir, ".skipme.zip"))

	scanner := NewScanner([]string{".zip", "sfc"})
	roms, err := scanner.ScanFolder(dir, "Nintendo SNES")
	require.NoError(t, err)
	require.Len(t, roms, 2)

	assert.Equal(t, "Super Metroid", roms[0].Identifier())
	assert.Equal(t, "Super Metroid (USA).sfc", roms[0].FileBase())
	assert.Equal(t, "Nintendo SNES", roms[0].Platform)
	assert.NotEmpty(t, roms[0].ID)

	assert.Equal(t, "Super Mario World", roms[1].Identifier())
	assert.Equal(t, filepath.Join(dir, "sub", "Super Mario World (U) [!].ZIP"), roms[1].ScannedData.File)
	assert.Empty(t, roms[1].AssetPaths)
}

func TestScanFolderAssetRoot(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "atetris.zip"))

	scanner := NewScanner([]string{"zip"})
	scanner.SetAssetRoot("/assets")
	roms, err := scanner.ScanFolder(dir, "MAME")
	require.NoError(t, err)
	require.Len(t, roms, 1)

	path, ok := roms[0].AssetPath(models.AssetBoxFront)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/assets", "boxfront"), path)
	assert.Equal(t, "atetris", roms[0].Identifier())
}

func TestScanFolderErrors(t *testing.T) {
	scanner := NewScanner([]string{"zip"})
	_, err := scanner.ScanFolder(filepath.Join(t.TempDir(), "missing"), "MAME")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "a.zip")
	touch(t, file)
	_, err = scanner.ScanFolder(file, "MAME")
	assert.Error(t, err)
}

func TestIsROM(t *testing.T) {
	scanner := NewScanner([]string{" .ISO ", "zip", ""})
	assert.True(t, scanner.IsROM("/x/Final Fantasy VII (Disc 1).iso"))
	assert.True(t, scanner.IsROM("a.ZIP"))
	assert.False(t, scanner.IsROM("a.7z"))
	assert.False(t, scanner.IsROM("noext"))
}
