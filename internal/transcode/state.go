package transcode

import "fmt"

type Phase int

const (
	Probing Phase = iota
	Planning
	Encoding
	Finalizing
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Probing:
		return "probing"
	case Planning:
		return "planning"
	case Encoding:
		return "encoding"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the position of a job in
// Probing -> Planning -> Encoding(i) -> Finalizing -> Done, with Failed
// reachable from every non-terminal state.
type State struct {
	Phase     Phase
	Index     int    // rendition index while Encoding
	Rendition string // rendition label while Encoding
	Err       error  // set when Failed
}

func (s State) Terminal() bool {
	return s.Phase == Done || s.Phase == Failed
}

func (s State) String() string {
	switch s.Phase {
	case Encoding:
		return fmt.Sprintf("encoding(%d:%s)", s.Index, s.Rendition)
	case Failed:
		if s.Err != nil {
			return "failed: " + s.Err.Error()
		}
	}
	return s.Phase.String()
}

// Observer is called on every state transition of a job.
type Observer func(jobID string, from, to State)

// next returns the state after a successful rendition i of total.
func next(i, total int, labels []string) State {
	if i+1 < total {
		return State{Phase: Encoding, Index: i + 1, Rendition: labels[i+1]}
	}
	return State{Phase: Finalizing}
}
