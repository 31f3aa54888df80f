package payment

type State string

const (
	StateIdle      State = "idle"
	StateInitiated State = "initiated"
	StateCompleted State = "completed"
)

const (
	ActionInitiate = "initiate"
	ActionComplete = "complete"
	ActionCancel   = "cancel"
)

var transitionMap = map[string][]State{
	ActionInitiate: {StateIdle, StateCompleted},
	ActionComplete: {StateInitiated},
	ActionCancel:   {StateInitiated},
}

func ValidTransition(action string, from State) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, state := range allowed {
		if state == from {
			return true
		}
	}
	return false
}
