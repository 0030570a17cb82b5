package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryAddRemove(t *testing.T) {
	inv := NewInventory()
	require.NoError(t, inv.AddItem("longsword", "weapons", 1))
	require.NoError(t, inv.AddItem("potion_healing", "consumables", 2))
	require.NoError(t, inv.AddItem("potion_healing", "consumables", 1))

	assert.Equal(t, 3, inv.Quantity("potion_healing"))
	assert.Equal(t, 2, inv.ItemCount())

	assert.True(t, inv.RemoveItem("potion_healing", 2))
	assert.Equal(t, 1, inv.Quantity("potion_healing"))
	assert.False(t, inv.RemoveItem("potion_healing", 5))
	assert.False(t, inv.RemoveItem("missing", 1))

	assert.Error(t, inv.AddItem("junk", "misc", 0))
}

func TestInventoryRemoveLastClearsEquipment(t *testing.T) {
	inv := NewInventory()
	require.NoError(t, inv.AddItem("longsword", "weapons", 1))
	require.True(t, inv.Equip("longsword", SlotWeapon))
	require.Equal(t, "longsword", inv.EquippedItem(SlotWeapon))

	require.True(t, inv.RemoveItem("longsword", 1))
	assert.Equal(t, "", inv.EquippedItem(SlotWeapon))
	assert.True(t, inv.IsEmpty())
}

func TestInventoryEquip(t *testing.T) {
	inv := NewInventory()
	assert.False(t, inv.Equip("longsword", SlotWeapon), "cannot equip an item not carried")

	require.NoError(t, inv.AddItem("longsword", "weapons", 1))
	require.NoError(t, inv.AddItem("chain_mail", "armor", 1))
	assert.True(t, inv.Equip("longsword", SlotWeapon))
	assert.True(t, inv.Equip("chain_mail", SlotArmor))

	assert.Equal(t, "longsword", inv.Unequip(SlotWeapon))
	assert.Equal(t, "", inv.EquippedItem(SlotWeapon))
	assert.Equal(t, "chain_mail", inv.EquippedItem(SlotArmor))
}

func TestInventoryGold(t *testing.T) {
	inv := NewInventory()
	require.NoError(t, inv.AddGold(50))
	assert.Error(t, inv.AddGold(-1))

	// Plain gold-on-hand subtraction keeps the denomination.
	assert.True(t, inv.RemoveGold(20))
	assert.Equal(t, 30, inv.Currency.Gold)

	// Whole-gold remainder stays in gold even when change-making is needed.
	inv.Currency = Currency{Gold: 5, Silver: 10}
	assert.True(t, inv.RemoveGold(6))
	assert.Equal(t, 0, inv.Currency.ToCopper())

	inv.Currency = Currency{Gold: 2, Silver: 25}
	assert.True(t, inv.RemoveGold(4))
	assert.Equal(t, 50, inv.Currency.ToCopper())

	assert.False(t, inv.RemoveGold(100))
	assert.True(t, inv.HasGold(0))
	assert.False(t, inv.HasGold(1000))
}

func TestInventoryMarshalShape(t *testing.T) {
	inv := NewInventory()
	require.NoError(t, inv.AddItem("longsword", "weapons", 1))
	require.True(t, inv.Equip("longsword", SlotWeapon))
	inv.Currency = Currency{Gold: 10}

	data, err := json.Marshal(inv)
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	require.Contains(t, wire, "items")
	require.Contains(t, wire, "equipped")
	require.Contains(t, wire, "currency")

	// Both slot keys are always present; the empty one is null.
	var equipped map[string]*string
	require.NoError(t, json.Unmarshal(wire["equipped"], &equipped))
	require.Contains(t, equipped, "weapon")
	require.Contains(t, equipped, "armor")
	require.NotNil(t, equipped["weapon"])
	assert.Equal(t, "longsword", *equipped["weapon"])
	assert.Nil(t, equipped["armor"])
}

func TestInventoryRoundTrip(t *testing.T) {
	inv := NewInventory()
	require.NoError(t, inv.AddItem("longsword", "weapons", 1))
	require.NoError(t, inv.AddItem("potion_healing", "consumables", 3))
	require.True(t, inv.Equip("longsword", SlotWeapon))
	inv.Currency = Currency{Gold: 12, Silver: 4}

	data, err := json.Marshal(inv)
	require.NoError(t, err)

	got := NewInventory()
	require.NoError(t, json.Unmarshal(data, got))
	assert.Equal(t, 1, got.Quantity("longsword"))
	assert.Equal(t, 3, got.Quantity("potion_healing"))
	assert.Equal(t, "longsword", got.EquippedItem(SlotWeapon))
	assert.Equal(t, inv.Currency, got.Currency)
}

func TestInventoryValidate(t *testing.T) {
	inv := NewInventory()
	require.NoError(t, inv.AddItem("longsword", "weapons", 1))
	require.True(t, inv.Equip("longsword", SlotWeapon))
	assert.NoError(t, inv.Validate())

	// An equipped id with no backing stack only arrives from a corrupted file.
	data := []byte(`{"items":[],"equipped":{"weapon":"ghost_blade","armor":null},"currency":{}}`)
	bad := NewInventory()
	require.NoError(t, json.Unmarshal(data, bad))
	assert.Error(t, bad.Validate())
}
