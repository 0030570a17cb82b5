package model

import "fmt"

// lifecycleState is the raw state tag stored in vault metadata.
type lifecycleState string

const (
	stateAvailable lifecycleState = "available"
	stateActive    lifecycleState = "active"
	stateRetired   lifecycleState = "retired"
)

// Lifecycle couples a vault character's state with the campaign it belongs
// to. An active character always names its campaign and a non-active one
// never does; the constructors make any other combination unrepresentable.
type Lifecycle struct {
	state    lifecycleState
	campaign string
}

// Available marks a character as in the vault and free to join a campaign.
func Available() Lifecycle {
	return Lifecycle{state: stateAvailable}
}

// ActiveIn marks a character as playing in the named campaign.
func ActiveIn(campaign string) (Lifecycle, error) {
	if campaign == "" {
		return Lifecycle{}, fmt.Errorf("active character requires a campaign name")
	}
	return Lifecycle{state: stateActive, campaign: campaign}, nil
}

// Retired marks a character as retired from play.
func Retired() Lifecycle {
	return Lifecycle{state: stateRetired}
}

// LifecycleFrom reconstructs a lifecycle from stored metadata, rejecting
// unknown states and illegal state/campaign combinations.
func LifecycleFrom(state, campaign string) (Lifecycle, error) {
	switch lifecycleState(state) {
	case stateActive:
		return ActiveIn(campaign)
	case stateAvailable, stateRetired:
		if campaign != "" {
			return Lifecycle{}, fmt.Errorf("%s character cannot name a campaign", state)
		}
		return Lifecycle{state: lifecycleState(state)}, nil
	default:
		return Lifecycle{}, fmt.Errorf("unknown character state %q", state)
	}
}

// State returns the raw state tag for serialization.
func (l Lifecycle) State() string {
	if l.state == "" {
		return string(stateAvailable)
	}
	return string(l.state)
}

// Campaign returns the campaign name, empty unless the character is active.
func (l Lifecycle) Campaign() string { return l.campaign }

// IsActive reports whether the character is playing in a campaign.
func (l Lifecycle) IsActive() bool { return l.state == stateActive }

// IsRetired reports whether the character has been retired.
func (l Lifecycle) IsRetired() bool { return l.state == stateRetired }
