package model

import (
	"errors"
	"fmt"
	"strings"
)

// Conversion rates to copper pieces (D&D 5E standard).
const (
	CopperPerSilver   = 10
	CopperPerElectrum = 50
	CopperPerGold     = 100
	CopperPerPlatinum = 1000
)

// Currency is a character's coin purse across the five denominations.
// Equality and ordering compare total value only; the denomination mix
// carries no meaning beyond presentation.
type Currency struct {
	Copper   int `json:"copper"`
	Silver   int `json:"silver"`
	Electrum int `json:"electrum"`
	Gold     int `json:"gold"`
	Platinum int `json:"platinum"`
}

// ToCopper returns the total value in copper pieces.
func (c Currency) ToCopper() int {
	return c.Copper +
		c.Silver*CopperPerSilver +
		c.Electrum*CopperPerElectrum +
		c.Gold*CopperPerGold +
		c.Platinum*CopperPerPlatinum
}

// CurrencyFromCopper expresses amount in canonical largest-denomination-first
// form. Negative amounts collapse to zero.
func CurrencyFromCopper(amount int) Currency {
	if amount < 0 {
		amount = 0
	}
	var c Currency
	c.Platinum = amount / CopperPerPlatinum
	amount %= CopperPerPlatinum
	c.Gold = amount / CopperPerGold
	amount %= CopperPerGold
	c.Electrum = amount / CopperPerElectrum
	amount %= CopperPerElectrum
	c.Silver = amount / CopperPerSilver
	c.Copper = amount % CopperPerSilver
	return c
}

// Add merges other's coins denomination by denomination. It never fails.
func (c *Currency) Add(other Currency) {
	c.Copper += other.Copper
	c.Silver += other.Silver
	c.Electrum += other.Electrum
	c.Gold += other.Gold
	c.Platinum += other.Platinum
}

// Subtract removes other's total value, breaking larger denominations to make
// change when the exact coins are not on hand. On success the remainder is
// re-expressed in canonical largest-first form. When the total value is
// insufficient it returns false and leaves c unchanged.
func (c *Currency) Subtract(other Currency) bool {
	required := other.ToCopper()
	available := c.ToCopper()
	if available < required {
		return false
	}
	*c = CurrencyFromCopper(available - required)
	return true
}

// CanAfford reports whether c's total value covers other's.
func (c Currency) CanAfford(other Currency) bool {
	return c.ToCopper() >= other.ToCopper()
}

// Consolidate converts coins upward to the fewest pieces without changing
// total value: 10 cp -> 1 sp, 5 sp -> 1 ep, 2 ep -> 1 gp, 10 gp -> 1 pp,
// applied in that cascading order. Idempotent.
func (c *Currency) Consolidate() {
	c.Silver += c.Copper / CopperPerSilver
	c.Copper %= CopperPerSilver

	c.Electrum += c.Silver / 5
	c.Silver %= 5

	c.Gold += c.Electrum / 2
	c.Electrum %= 2

	c.Platinum += c.Gold / 10
	c.Gold %= 10
}

// IsZero reports whether every denomination is zero.
func (c Currency) IsZero() bool {
	return c.Copper == 0 && c.Silver == 0 && c.Electrum == 0 && c.Gold == 0 && c.Platinum == 0
}

// Equal compares by total value, independent of denomination mix.
func (c Currency) Equal(other Currency) bool {
	return c.ToCopper() == other.ToCopper()
}

// Cmp returns -1, 0 or 1 comparing total values.
func (c Currency) Cmp(other Currency) int {
	a, b := c.ToCopper(), other.ToCopper()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Validate rejects negative denominations, which can only arrive from a
// hand-edited or corrupted save file.
func (c Currency) Validate() error {
	if c.Copper < 0 || c.Silver < 0 || c.Electrum < 0 || c.Gold < 0 || c.Platinum < 0 {
		return errors.New("currency values cannot be negative")
	}
	return nil
}

// String renders the non-zero denominations largest first, e.g. "5 gp, 7 sp".
func (c Currency) String() string {
	var parts []string
	if c.Platinum > 0 {
		parts = append(parts, fmt.Sprintf("%d pp", c.Platinum))
	}
	if c.Gold > 0 {
		parts = append(parts, fmt.Sprintf("%d gp", c.Gold))
	}
	if c.Electrum > 0 {
		parts = append(parts, fmt.Sprintf("%d ep", c.Electrum))
	}
	if c.Silver > 0 {
		parts = append(parts, fmt.Sprintf("%d sp", c.Silver))
	}
	if c.Copper > 0 {
		parts = append(parts, fmt.Sprintf("%d cp", c.Copper))
	}
	if len(parts) == 0 {
		return "0 cp"
	}
	return strings.Join(parts, ", ")
}
