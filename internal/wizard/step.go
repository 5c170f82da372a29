package wizard

// Step is the wizard's position in the composite-transaction flow.
type Step int

const (
	StepEmpty Step = iota
	StepSenderChosen
	StepTypeChosen
	StepReceiverChosen
	StepDetailsEntered
	StepSubmitted
)

var stepNames = map[Step]string{
	StepEmpty:          "empty",
	StepSenderChosen:   "sender_chosen",
	StepTypeChosen:     "type_chosen",
	StepReceiverChosen: "receiver_chosen",
	StepDetailsEntered: "details_entered",
	StepSubmitted:      "submitted",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// allowedNext is the directed workflow graph: the single source of truth
// for legal transitions. Every mutator checks it; screens cannot move
// the draft along an edge that is not listed here.
//
// Self-edges let a screen revise its own choice before moving on.
// StepSubmitted -> StepSenderChosen is the "add more work" edge: the
// sale survives, the works reset, and type selection is the next step.
var allowedNext = map[Step][]Step{
	StepEmpty:          {StepSenderChosen},
	StepSenderChosen:   {StepTypeChosen},
	StepTypeChosen:     {StepTypeChosen, StepReceiverChosen},
	StepReceiverChosen: {StepDetailsEntered},
	StepDetailsEntered: {StepDetailsEntered, StepSubmitted},
	StepSubmitted:      {StepSenderChosen},
}

func canMove(from, to Step) bool {
	for _, next := range allowedNext[from] {
		if next == to {
			return true
		}
	}
	return false
}
