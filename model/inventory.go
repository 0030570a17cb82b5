package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// EquipmentSlot identifies where an item can be equipped.
type EquipmentSlot string

const (
	SlotWeapon EquipmentSlot = "weapon"
	SlotArmor  EquipmentSlot = "armor"
)

// InventoryItem is one stack of a single item, referenced by id into the
// game's item data files.
type InventoryItem struct {
	ItemID   string `json:"item_id"`
	Category string `json:"category"` // "weapons", "armor", "consumables"
	Quantity int    `json:"quantity"`
}

// Inventory tracks a character's item stacks, the two equipment slots, and
// the coin purse. The zero value is not usable; call NewInventory.
type Inventory struct {
	items    map[string]*InventoryItem
	equipped map[EquipmentSlot]string
	Currency Currency
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		items:    make(map[string]*InventoryItem),
		equipped: make(map[EquipmentSlot]string),
	}
}

// AddItem adds qty of (itemID, category) to the inventory, stacking onto an
// existing entry when present.
func (inv *Inventory) AddItem(itemID, category string, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	if existing, ok := inv.items[itemID]; ok {
		existing.Quantity += qty
		return nil
	}
	inv.items[itemID] = &InventoryItem{ItemID: itemID, Category: category, Quantity: qty}
	return nil
}

// RemoveItem decrements an item's quantity. When the stack reaches zero the
// item is removed entirely and any equipment slot referencing it is cleared.
// Returns false if the item is missing or the stack is too small.
func (inv *Inventory) RemoveItem(itemID string, qty int) bool {
	if qty <= 0 {
		return false
	}
	item, ok := inv.items[itemID]
	if !ok || item.Quantity < qty {
		return false
	}
	item.Quantity -= qty
	if item.Quantity == 0 {
		delete(inv.items, itemID)
		for slot, equippedID := range inv.equipped {
			if equippedID == itemID {
				delete(inv.equipped, slot)
			}
		}
	}
	return true
}

// HasItem reports whether at least one of itemID is carried.
func (inv *Inventory) HasItem(itemID string) bool {
	return inv.Quantity(itemID) >= 1
}

// Quantity returns the carried count of itemID, zero when absent.
func (inv *Inventory) Quantity(itemID string) int {
	if item, ok := inv.items[itemID]; ok {
		return item.Quantity
	}
	return 0
}

// Equip places a carried item into a slot. Returns false if the item is not
// in the inventory.
func (inv *Inventory) Equip(itemID string, slot EquipmentSlot) bool {
	if _, ok := inv.items[itemID]; !ok {
		return false
	}
	inv.equipped[slot] = itemID
	return true
}

// Unequip clears a slot and returns the item id that occupied it, or "".
func (inv *Inventory) Unequip(slot EquipmentSlot) string {
	itemID := inv.equipped[slot]
	delete(inv.equipped, slot)
	return itemID
}

// EquippedItem returns the item id in a slot, or "" when the slot is empty.
func (inv *Inventory) EquippedItem(slot EquipmentSlot) string {
	return inv.equipped[slot]
}

// AllItems returns every stack sorted by category then item id.
func (inv *Inventory) AllItems() []InventoryItem {
	items := make([]InventoryItem, 0, len(inv.items))
	for _, item := range inv.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].ItemID < items[j].ItemID
	})
	return items
}

// ItemsByCategory returns the stacks in a category, sorted by item id.
func (inv *Inventory) ItemsByCategory(category string) []InventoryItem {
	var items []InventoryItem
	for _, item := range inv.AllItems() {
		if item.Category == category {
			items = append(items, item)
		}
	}
	return items
}

// IsEmpty reports whether no item stacks are carried. Coins do not count.
func (inv *Inventory) IsEmpty() bool {
	return len(inv.items) == 0
}

// ItemCount returns the number of distinct item stacks.
func (inv *Inventory) ItemCount() int {
	return len(inv.items)
}

// AddGold adds amount gold pieces to the purse.
func (inv *Inventory) AddGold(amount int) error {
	if amount < 0 {
		return errors.New("cannot add negative gold")
	}
	inv.Currency.Add(Currency{Gold: amount})
	return nil
}

// RemoveGold removes amount gold pieces, keeping the remainder in the gold
// denomination when the total divides evenly; otherwise it falls back to
// normal change-making. Returns false when the purse cannot cover the amount.
func (inv *Inventory) RemoveGold(amount int) bool {
	if amount < 0 {
		return false
	}
	if inv.Currency.Gold >= amount {
		inv.Currency.Gold -= amount
		return true
	}
	remaining := inv.Currency.ToCopper() - amount*CopperPerGold
	if remaining < 0 {
		return false
	}
	if remaining%CopperPerGold == 0 {
		inv.Currency = Currency{Gold: remaining / CopperPerGold}
		return true
	}
	return inv.Currency.Subtract(Currency{Gold: amount})
}

// HasGold reports whether the purse's total value covers amount gold pieces.
func (inv *Inventory) HasGold(amount int) bool {
	return inv.Currency.CanAfford(Currency{Gold: amount})
}

// Validate checks that equipped items are carried and stacks are positive.
func (inv *Inventory) Validate() error {
	for slot, itemID := range inv.equipped {
		if _, ok := inv.items[itemID]; !ok {
			return fmt.Errorf("equipped %s %q is not in the inventory", slot, itemID)
		}
	}
	for _, item := range inv.items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item %q has non-positive quantity %d", item.ItemID, item.Quantity)
		}
	}
	return inv.Currency.Validate()
}

// inventoryJSON is the on-disk shape: a flat item list, an equipped object
// that always carries both slot keys (null when empty), and the purse.
type inventoryJSON struct {
	Items    []InventoryItem    `json:"items"`
	Equipped map[string]*string `json:"equipped"`
	Currency Currency           `json:"currency"`
}

// MarshalJSON implements json.Marshaler.
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	equipped := map[string]*string{
		string(SlotWeapon): nil,
		string(SlotArmor):  nil,
	}
	for slot, itemID := range inv.equipped {
		id := itemID
		equipped[string(slot)] = &id
	}
	return json.Marshal(inventoryJSON{
		Items:    inv.AllItems(),
		Equipped: equipped,
		Currency: inv.Currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (inv *Inventory) UnmarshalJSON(data []byte) error {
	var wire inventoryJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	inv.items = make(map[string]*InventoryItem, len(wire.Items))
	inv.equipped = make(map[EquipmentSlot]string)
	for _, item := range wire.Items {
		it := item
		inv.items[it.ItemID] = &it
	}
	for slot, itemID := range wire.Equipped {
		if itemID != nil && *itemID != "" {
			inv.equipped[EquipmentSlot(slot)] = *itemID
		}
	}
	inv.Currency = wire.Currency
	return nil
}
