package review

import "encoding/json"

// State is a review session state.
type State int

const (
	StateIdle State = iota
	StateSelectingDueCards
	StatePresentingCard
	StateAwaitingOutcome
	StateUpdating
	StateFinished
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateSelectingDueCards: "selecting_due_cards",
	StatePresentingCard:    "presenting_card",
	StateAwaitingOutcome:   "awaiting_outcome",
	StateUpdating:          "updating",
	StateFinished:          "finished",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
