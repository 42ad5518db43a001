package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	defaults := map[string]string{
		"objects.yaml":       "objects: []\n",
		"spells.yaml":        "spells: []\n",
		"messages.yaml":      "messages: {}\n",
		"room_defaults.yaml": "rooms: []\n",
	}
	for name, body := range files {
		defaults[name] = body
	}
	for name, body := range defaults {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return dir
}

func TestLoad_Objects(t *testing.T) {
	dir := writeCatalogs(t, map[string]string{
		"objects.yaml": `
objects:
  - id: 101
    name: Rusted Key
  - id: 102
    name: silver acorn
`,
	})

	s, err := Load(dir)
	require.NoError(t, err)

	o, ok := s.ObjectByName("rusted key")
	require.True(t, ok)
	assert.Equal(t, 101, o.ID)

	o, ok = s.ObjectByName("SILVER ACORN")
	require.True(t, ok)
	assert.Equal(t, 102, o.ID)

	o, ok = s.ObjectByID(101)
	require.True(t, ok)
	assert.Equal(t, "Rusted Key", o.Name)

	_, ok = s.ObjectByName("missing thing")
	assert.False(t, ok)
}

func TestLoad_DuplicateObjectNameFails(t *testing.T) {
	dir := writeCatalogs(t, map[string]string{
		"objects.yaml": `
objects:
  - id: 1
    name: key
  - id: 2
    name: Key
`,
	})
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_Spells(t *testing.T) {
	dir := writeCatalogs(t, map[string]string{
		"spells.yaml": `
spells:
  - id: 7
    name: Firebolt
    book: offense
    bit: 3
    price: 250
`,
	})

	s, err := Load(dir)
	require.NoError(t, err)

	sp, ok := s.SpellByName("firebolt")
	require.True(t, ok)
	assert.Equal(t, BookOffense, sp.Book)
	assert.Equal(t, uint(3), sp.Bit)
	assert.Equal(t, 250, sp.Price)
}

func TestLoad_UnknownSpellBookFails(t *testing.T) {
	dir := writeCatalogs(t, map[string]string{
		"spells.yaml": `
spells:
  - id: 7
    name: Firebolt
    book: necromancy
`,
	})
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	dir := writeCatalogs(t, map[string]string{
		"messages.yaml": "messages: [not: a: map\n",
	})
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	dir := writeCatalogs(t, map[string]string{
		"messages.yaml": `
messages:
  greet: "%s waves at %s."
  pct: "100%% done"
`,
	})

	s, err := Load(dir)
	require.NoError(t, err)

	got, ok := s.Render("greet", "Alia", "Bren")
	require.True(t, ok)
	assert.Equal(t, "Alia waves at Bren.", got)

	got, ok = s.Render("pct")
	require.True(t, ok)
	assert.Equal(t, "100% done", got)

	_, ok = s.Render("missing")
	assert.False(t, ok)
}

func TestSubstitute_SurplusTokensAndArgs(t *testing.T) {
	assert.Equal(t, "a and %s", Substitute("%s and %s", "a"))
	assert.Equal(t, "a", Substitute("%s", "a", "b"))
	assert.Equal(t, "no tokens", Substitute("no tokens", "x"))
}

func TestRoomDefaults(t *testing.T) {
	dir := writeCatalogs(t, map[string]string{
		"room_defaults.yaml": `
rooms:
  - id: grove
    state:
      stump: 0
      entries: 0
    objects: [101, 102]
`,
	})

	s, err := Load(dir)
	require.NoError(t, err)

	state := s.DefaultState("grove")
	assert.Equal(t, 0, state["stump"])

	// Copies are independent of the store.
	state["stump"] = 5
	assert.Equal(t, 0, s.DefaultState("grove")["stump"])

	objs := s.DefaultObjects("grove")
	assert.Equal(t, []int{101, 102}, objs)

	assert.Empty(t, s.DefaultState("unknown"))
	assert.Empty(t, s.DefaultObjects("unknown"))
}
