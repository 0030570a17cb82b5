package model

import (
	"errors"
	"fmt"
	"slices"
)

// Abilities holds the six D&D 5E ability scores.
type Abilities struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Modifier converts an ability score to its modifier: (score-10)/2, rounded
// toward negative infinity.
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// Character is the shared character payload stored inside save files and
// both vault generations.
type Character struct {
	Name           string `json:"name"`
	CharacterClass string `json:"character_class"`
	Level          int    `json:"level"`
	Race           string `json:"race"`
	Subclass       string `json:"subclass,omitempty"`
	XP             int    `json:"xp"`
	MaxHP          int    `json:"max_hp"`
	CurrentHP      int    `json:"current_hp"`
	AC             int    `json:"ac"`

	Abilities Abilities  `json:"abilities"`
	Inventory *Inventory `json:"inventory"`

	Conditions    []string       `json:"conditions"`
	ResourcePools []ResourcePool `json:"resource_pools"`

	SavingThrowProficiencies []string `json:"saving_throw_proficiencies,omitempty"`
	SkillProficiencies       []string `json:"skill_proficiencies,omitempty"`
	ExpertiseSkills          []string `json:"expertise_skills,omitempty"`
	WeaponProficiencies      []string `json:"weapon_proficiencies,omitempty"`
	ArmorProficiencies       []string `json:"armor_proficiencies,omitempty"`

	SpellcastingAbility string   `json:"spellcasting_ability,omitempty"`
	KnownSpells         []string `json:"known_spells,omitempty"`
	PreparedSpells      []string `json:"prepared_spells,omitempty"`
}

// NewCharacter returns a level-appropriate character shell with an empty
// inventory and full hit points.
func NewCharacter(name, class, race string, level, maxHP, ac int, abilities Abilities) *Character {
	return &Character{
		Name:           name,
		CharacterClass: class,
		Race:           race,
		Level:          level,
		MaxHP:          maxHP,
		CurrentHP:      maxHP,
		AC:             ac,
		Abilities:      abilities,
		Inventory:      NewInventory(),
	}
}

// ProficiencyBonus derives the 5E proficiency bonus from level: +2 at levels
// 1-4, +3 at 5-8, and so on.
func (c *Character) ProficiencyBonus() int {
	if c.Level < 1 {
		return 2
	}
	return 2 + (c.Level-1)/4
}

// IsAlive reports whether the character has hit points remaining.
func (c *Character) IsAlive() bool {
	return c.CurrentHP > 0
}

// TakeDamage reduces hit points, clamping at zero.
func (c *Character) TakeDamage(amount int) {
	if amount < 0 {
		return
	}
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// Heal restores hit points, clamping at the maximum, and returns the amount
// actually healed.
func (c *Character) Heal(amount int) int {
	if amount < 0 {
		return 0
	}
	healed := min(amount, c.MaxHP-c.CurrentHP)
	if healed < 0 {
		healed = 0
	}
	c.CurrentHP += healed
	return healed
}

// AddCondition applies a condition, ignoring duplicates.
func (c *Character) AddCondition(name string) {
	if !c.HasCondition(name) {
		c.Conditions = append(c.Conditions, name)
	}
}

// RemoveCondition clears a condition. Returns false if it was not present.
func (c *Character) RemoveCondition(name string) bool {
	idx := slices.Index(c.Conditions, name)
	if idx < 0 {
		return false
	}
	c.Conditions = slices.Delete(c.Conditions, idx, idx+1)
	return true
}

// HasCondition reports whether the condition is active.
func (c *Character) HasCondition(name string) bool {
	return slices.Contains(c.Conditions, name)
}

// Pool returns the resource pool with the given name, or nil.
func (c *Character) Pool(name string) *ResourcePool {
	for i := range c.ResourcePools {
		if c.ResourcePools[i].Name == name {
			return &c.ResourcePools[i]
		}
	}
	return nil
}

// AddPool registers a resource pool, replacing any existing pool of the same
// name.
func (c *Character) AddPool(pool ResourcePool) {
	if existing := c.Pool(pool.Name); existing != nil {
		*existing = pool
		return
	}
	c.ResourcePools = append(c.ResourcePools, pool)
}

// RecoverPools refills every pool whose recovery type matches. A short rest
// refills only short-rest pools; a long rest refills short-rest, long-rest
// and daily pools. Permanent pools never refill.
func (c *Character) RecoverPools(rest RecoveryType) {
	for i := range c.ResourcePools {
		pool := &c.ResourcePools[i]
		switch pool.RecoveryType {
		case RecoverShortRest:
			pool.RecoverAll()
		case RecoverLongRest, RecoverDaily:
			if rest == RecoverLongRest {
				pool.RecoverAll()
			}
		}
	}
}

// Validate checks the structural invariants a save file must satisfy.
func (c *Character) Validate() error {
	if c.Name == "" {
		return errors.New("character name is required")
	}
	if c.CharacterClass == "" {
		return fmt.Errorf("character %q has no class", c.Name)
	}
	if c.Level < 1 {
		return fmt.Errorf("character %q has invalid level %d", c.Name, c.Level)
	}
	if c.MaxHP < 1 {
		return fmt.Errorf("character %q has invalid max hp %d", c.Name, c.MaxHP)
	}
	if c.CurrentHP < 0 || c.CurrentHP > c.MaxHP {
		return fmt.Errorf("character %q has hp %d outside [0, %d]", c.Name, c.CurrentHP, c.MaxHP)
	}
	if c.Inventory != nil {
		if err := c.Inventory.Validate(); err != nil {
			return fmt.Errorf("character %q: %w", c.Name, err)
		}
	}
	return nil
}
