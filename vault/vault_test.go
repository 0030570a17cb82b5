package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkellner/dndterminal/model"
	"github.com/mkellner/dndterminal/storage"
	"github.com/mkellner/dndterminal/testutil"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(filepath.Join(t.TempDir(), "vault"), testutil.Logger(t))
	require.NoError(t, err)
	return v
}

func TestVaultSaveLoad(t *testing.T) {
	v := newTestVault(t)
	ch := testutil.Character("Aria", "fighter", 3)
	ch.Subclass = "champion"
	require.NoError(t, ch.Inventory.AddItem("longsword", "weapons", 1))
	require.True(t, ch.Inventory.Equip("longsword", model.SlotWeapon))
	ch.AddPool(model.ResourcePool{Name: "second_wind", Current: 1, Maximum: 1, RecoveryType: model.RecoverShortRest})

	id, err := v.Save(ch, "", model.Available())
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "generated ids are UUIDs")

	got, err := v.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "Aria", got.Name)
	assert.Equal(t, "champion", got.Subclass)
	assert.Equal(t, "longsword", got.Inventory.EquippedItem(model.SlotWeapon))
	require.NotNil(t, got.Pool("second_wind"))
	assert.Equal(t, 1, got.Pool("second_wind").Current)
}

func TestVaultSaveRejectsInvalid(t *testing.T) {
	v := newTestVault(t)

	_, err := v.Save(testutil.Character("Aria", "fighter", 3), "not-a-uuid", model.Available())
	assert.ErrorIs(t, err, storage.ErrInvalid)

	bad := testutil.Character("", "fighter", 3)
	_, err = v.Save(bad, "", model.Available())
	assert.ErrorIs(t, err, storage.ErrInvalid)
}

func TestVaultLifecycleMetadata(t *testing.T) {
	v := newTestVault(t)
	active, err := model.ActiveIn("lost_mines")
	require.NoError(t, err)

	id, err := v.Save(testutil.Character("Aria", "fighter", 3), "", active)
	require.NoError(t, err)

	summaries, skipped, err := v.List(false)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Len(t, summaries, 1)
	assert.Equal(t, "active", summaries[0].State)
	assert.Equal(t, "lost_mines", summaries[0].Campaign)

	require.NoError(t, v.UpdateState(id, model.Retired()))
	summaries, _, err = v.List(false)
	require.NoError(t, err)
	assert.Empty(t, summaries, "retired characters are hidden by default")

	summaries, _, err = v.List(true)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "retired", summaries[0].State)
	assert.Equal(t, "", summaries[0].Campaign)
}

func TestVaultListSkipsCorruptEntries(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	v, err := New(dir, testutil.Logger(t))
	require.NoError(t, err)

	_, err = v.Save(testutil.Character("Aria", "fighter", 3), "", model.Available())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{{{"), 0o644))

	summaries, skipped, err := v.List(false)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
	require.Len(t, skipped, 1)
	assert.Equal(t, "broken", skipped[0].ID)
	assert.ErrorIs(t, skipped[0].Err, storage.ErrInvalid)
}

func TestVaultExportImport(t *testing.T) {
	v := newTestVault(t)
	id, err := v.Save(testutil.Character("Aria", "fighter", 3), "", model.Available())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "aria.json")
	require.NoError(t, v.Export(id, path, true))

	// Stripped exports carry no internal metadata.
	var doc map[string]any
	require.NoError(t, storage.ReadJSON(path, &doc))
	assert.NotContains(t, doc, "metadata")
	assert.Contains(t, doc, "character")

	other := newTestVault(t)
	newID, err := other.Import(path, "")
	require.NoError(t, err)
	got, err := other.Load(newID)
	require.NoError(t, err)
	assert.Equal(t, "Aria", got.Name)
}

func TestVaultClone(t *testing.T) {
	v := newTestVault(t)
	id, err := v.Save(testutil.Character("Aria", "fighter", 3), "", model.Available())
	require.NoError(t, err)

	cloneID, err := v.Clone(id, "")
	require.NoError(t, err)
	require.NotEqual(t, id, cloneID)
	clone, err := v.Load(cloneID)
	require.NoError(t, err)
	assert.Equal(t, "Copy of Aria", clone.Name)

	namedID, err := v.Clone(id, "Aria the Second")
	require.NoError(t, err)
	named, err := v.Load(namedID)
	require.NoError(t, err)
	assert.Equal(t, "Aria the Second", named.Name)
}

func TestVaultDeleteIsIdempotent(t *testing.T) {
	v := newTestVault(t)
	id, err := v.Save(testutil.Character("Aria", "fighter", 3), "", model.Available())
	require.NoError(t, err)

	removed, err := v.Delete(id)
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = v.Load(id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	removed, err = v.Delete(id)
	require.NoError(t, err, "re-deleting must not fail")
	assert.False(t, removed)
}

func TestVaultLoadRejectsIncompleteDocuments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	v, err := New(dir, testutil.Logger(t))
	require.NoError(t, err)
	id := uuid.NewString()

	write := func(doc string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(doc), 0o644))
	}

	// A bare character object with no version or metadata must not load.
	write(`{"character":{"name":"Aria","character_class":"fighter","level":3,"max_hp":16,"current_hp":16}}`)
	_, err = v.Load(id)
	assert.ErrorIs(t, err, storage.ErrInvalid)

	write(`{"version":"1.0.0","metadata":{},"character":{"name":"Aria"}}`)
	_, err = v.Load(id)
	assert.ErrorIs(t, err, storage.ErrInvalid, "metadata must carry an id and state")

	write(`{"version":"1.0.0","metadata":{"character_id":"` + id + `","state":"available"}}`)
	_, err = v.Load(id)
	assert.ErrorIs(t, err, storage.ErrInvalid, "the character key is required")
}
