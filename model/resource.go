package model

import "fmt"

// RecoveryType names when a resource pool refills.
type RecoveryType string

const (
	RecoverShortRest RecoveryType = "short_rest"
	RecoverLongRest  RecoveryType = "long_rest"
	RecoverDaily     RecoveryType = "daily"
	RecoverPermanent RecoveryType = "permanent"
)

// ResourcePool tracks a limited-use class ability such as spell slots,
// ki points, rage uses or bardic inspiration.
type ResourcePool struct {
	Name         string       `json:"name"`
	Current      int          `json:"current"`
	Maximum      int          `json:"maximum"`
	RecoveryType RecoveryType `json:"recovery_type"`
}

// Use spends amount from the pool. Returns false when amount is not positive
// or the pool holds less than amount; the pool is unchanged on failure.
func (p *ResourcePool) Use(amount int) bool {
	if amount <= 0 {
		return false
	}
	if p.Current < amount {
		return false
	}
	p.Current -= amount
	return true
}

// Recover restores up to amount, clamped at the maximum, and returns the
// number actually recovered. A negative amount restores to full.
func (p *ResourcePool) Recover(amount int) int {
	if amount < 0 {
		amount = p.Maximum - p.Current
	}
	recovered := min(amount, p.Maximum-p.Current)
	if recovered < 0 {
		recovered = 0
	}
	p.Current += recovered
	return recovered
}

// RecoverAll restores the pool to its maximum and returns the amount recovered.
func (p *ResourcePool) RecoverAll() int {
	return p.Recover(-1)
}

// Available reports whether at least amount remains.
func (p *ResourcePool) Available(amount int) bool {
	return p.Current >= amount
}

// IsEmpty reports whether the pool is depleted.
func (p *ResourcePool) IsEmpty() bool {
	return p.Current == 0
}

// IsFull reports whether the pool is at maximum.
func (p *ResourcePool) IsFull() bool {
	return p.Current == p.Maximum
}

func (p *ResourcePool) String() string {
	return fmt.Sprintf("%s: %d/%d", p.Name, p.Current, p.Maximum)
}
