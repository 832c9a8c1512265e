package flow

import (
	"slices"
	"strings"

	"github.com/zeptools/gw-contracts/extract"
)

func expect(op string, st State, allowed ...Step) error {
	if slices.Contains(allowed, st.Step) {
		return nil
	}
	return &StepError{Op: op, At: st.Step, Want: allowed}
}

// Reset returns the initial state.
func Reset() State {
	return State{Step: StepUpload}
}

// Upload records the identity read from an uploaded document. Misses already
// carry the placeholder in the identity; the user corrects them on review.
func Upload(st State, id extract.Identity, misses []extract.ExtractionMiss) (State, error) {
	if err := expect("upload", st, StepUpload, StepReview); err != nil {
		return st, err
	}
	next := Reset()
	next.Identity = id
	for _, m := range misses {
		next.Misses = append(next.Misses, m.Field)
	}
	next.Step = StepReview
	return next, nil
}

// Confirm accepts the reviewed identity. Every field must be non-empty.
func Confirm(st State, id extract.Identity) (State, error) {
	if err := expect("confirm", st, StepReview); err != nil {
		return st, err
	}
	var empty []string
	for _, f := range extract.Fields {
		v := strings.TrimSpace(id.Get(f))
		if v == "" {
			empty = append(empty, f)
		}
	}
	if len(empty) > 0 {
		return st, &InputError{Fields: empty}
	}
	st.Identity = extract.Identity{
		Name:    strings.TrimSpace(id.Name),
		CPF:     strings.TrimSpace(id.CPF),
		CEP:     strings.TrimSpace(id.CEP),
		Address: strings.TrimSpace(id.Address),
	}
	st.Misses = nil
	st.Step = StepSelect
	return st, nil
}

// Select picks the contract template. It is also the way to add another
// contract to the batch after a download.
func Select(st State, key, title string) (State, error) {
	if err := expect("select", st, StepSelect, StepFill, StepDownload); err != nil {
		return st, err
	}
	if key == "" {
		return st, &StepError{Op: "select", At: st.Step, Want: []Step{StepSelect}}
	}
	st.TemplateKey = key
	st.TemplateTitle = title
	st.Values = nil
	st.Step = StepFill
	return st, nil
}

// Fill stores the field values and moves to rendering.
func Fill(st State, values map[string]string) (State, error) {
	if err := expect("fill", st, StepFill); err != nil {
		return st, err
	}
	st.Values = make(map[string]string, len(values))
	for k, v := range values {
		st.Values[k] = v
	}
	st.Step = StepRender
	return st, nil
}

// RenderFailed returns to the fill step keeping the entered values.
func RenderFailed(st State) (State, error) {
	if err := expect("render-failed", st, StepRender); err != nil {
		return st, err
	}
	st.Step = StepFill
	return st, nil
}

// Rendered appends the stored artifact to the batch.
func Rendered(st State, item BatchItem) (State, error) {
	if err := expect("rendered", st, StepRender); err != nil {
		return st, err
	}
	st.Batch = append(slices.Clone(st.Batch), item)
	st.Step = StepDownload
	return st, nil
}

// Finish hands the batch to the caller for the combined download and clears it.
// The patient stays selected so more contracts can follow.
func Finish(st State) (State, []BatchItem, error) {
	if err := expect("finish", st, StepDownload); err != nil {
		return st, nil, err
	}
	if len(st.Batch) == 0 {
		return st, nil, &StepError{Op: "finish", At: st.Step, Want: []Step{StepRender}}
	}
	batch := st.Batch
	st.Batch = nil
	st.TemplateKey = ""
	st.TemplateTitle = ""
	st.Values = nil
	st.Step = StepSelect
	return st, batch, nil
}

// Back moves to an earlier step the user may revisit: review or select.
func Back(st State, to Step) (State, error) {
	if to != StepReview && to != StepSelect {
		return st, &StepError{Op: "back", At: st.Step, Want: []Step{StepReview, StepSelect}}
	}
	if st.Step <= to || st.Step == StepRender {
		return st, &StepError{Op: "back", At: st.Step, Want: []Step{StepSelect, StepFill, StepDownload}}
	}
	st.Step = to
	return st, nil
}
