package flow

import (
	"fmt"
	"strings"

	"github.com/zeptools/gw-contracts/extract"
)

// Step is a position in the contract sequence
// Upload → Review → Select → Fill → Render → Download.
type Step int

const (
	StepUpload Step = iota
	StepReview
	StepSelect
	StepFill
	StepRender
	StepDownload
)

var stepNames = [...]string{"upload", "review", "select", "fill", "render", "download"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

func (s Step) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stepNames) {
		return nil, fmt.Errorf("flow: invalid step %d", int(s))
	}
	return []byte(stepNames[s]), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	for i, name := range stepNames {
		if name == string(b) {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("flow: unknown step %q", b)
}

// BatchItem is one rendered contract waiting in the session batch.
type BatchItem struct {
	ArtifactID string `json:"artifact_id"`
	Template   string `json:"template"`
	Title      string `json:"title"`
	Pages      int    `json:"pages"`
}

// State is the whole per-session form state. It is a plain value: step functions
// never modify their argument and callers store the returned copy.
type State struct {
	Step          Step              `json:"step"`
	Identity      extract.Identity  `json:"identity"`
	Misses        []string          `json:"misses,omitempty"`
	TemplateKey   string            `json:"template,omitempty"`
	TemplateTitle string            `json:"template_title,omitempty"`
	Values        map[string]string `json:"values,omitempty"`
	Batch         []BatchItem       `json:"batch,omitempty"`
}

// StepError reports an operation attempted out of order.
type StepError struct {
	Op   string
	At   Step
	Want []Step
}

func (e *StepError) Error() string {
	want := make([]string, len(e.Want))
	for i, s := range e.Want {
		want[i] = s.String()
	}
	return fmt.Sprintf("flow: %s not allowed at step %s (want %s)", e.Op, e.At, strings.Join(want, "|"))
}

// InputError lists identity fields left empty on confirmation.
type InputError struct {
	Fields []string
}

func (e *InputError) Error() string {
	return "flow: empty identity fields: " + strings.Join(e.Fields, ", ")
}
