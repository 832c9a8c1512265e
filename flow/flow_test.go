package flow

import (
	"errors"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeptools/gw-contracts/extract"
)

var maria = extract.Identity{
	Name:    "MARIA APARECIDA SOUZA",
	CPF:     "123.456.789-09",
	CEP:     "75345-959",
	Address: "RUA 7",
}

func TestHappyPath(t *testing.T) {
	st := Reset()
	assert.Equal(t, StepUpload, st.Step)

	partial := maria
	partial.Address = extract.DefaultPlaceholder
	st, err := Upload(st, partial, []extract.ExtractionMiss{{Field: extract.FieldAddress}})
	require.NoError(t, err)
	assert.Equal(t, StepReview, st.Step)
	assert.Equal(t, []string{extract.FieldAddress}, st.Misses)

	st, err = Confirm(st, maria)
	require.NoError(t, err)
	assert.Equal(t, StepSelect, st.Step)
	assert.Nil(t, st.Misses)

	st, err = Select(st, "canal", "Contrato Canal")
	require.NoError(t, err)
	assert.Equal(t, StepFill, st.Step)

	values := map[string]string{"valor_vista": "100"}
	st, err = Fill(st, values)
	require.NoError(t, err)
	assert.Equal(t, StepRender, st.Step)
	values["valor_vista"] = "changed"
	assert.Equal(t, "100", st.Values["valor_vista"])

	st, err = Rendered(st, BatchItem{ArtifactID: "a1", Template: "canal", Title: "Contrato Canal", Pages: 3})
	require.NoError(t, err)
	assert.Equal(t, StepDownload, st.Step)

	// add a second contract
	st, err = Select(st, "botox", "Contrato Botox")
	require.NoError(t, err)
	st, err = Fill(st, nil)
	require.NoError(t, err)
	st, err = Rendered(st, BatchItem{ArtifactID: "a2", Template: "botox", Pages: 2})
	require.NoError(t, err)
	require.Len(t, st.Batch, 2)

	st, batch, err := Finish(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, []string{batch[0].ArtifactID, batch[1].ArtifactID})
	assert.Empty(t, st.Batch)
	assert.Equal(t, StepSelect, st.Step)
	assert.Equal(t, maria, st.Identity)
}

func TestStepsDoNotModifyTheirArgument(t *testing.T) {
	st := State{Step: StepRender, Batch: make([]BatchItem, 1, 4)}
	next, err := Rendered(st, BatchItem{ArtifactID: "x"})
	require.NoError(t, err)
	assert.Len(t, st.Batch, 1)
	assert.Equal(t, StepRender, st.Step)
	assert.Len(t, next.Batch, 2)

	next.Batch[0].ArtifactID = "changed"
	assert.Empty(t, st.Batch[0].ArtifactID)
}

func TestOutOfOrder(t *testing.T) {
	type testCase struct {
		name string
		run  func() error
	}
	at := func(s Step) State { return State{Step: s} }
	cases := []testCase{
		{"confirm before upload", func() error { _, err := Confirm(at(StepUpload), maria); return err }},
		{"select before confirm", func() error { _, err := Select(at(StepReview), "canal", ""); return err }},
		{"fill before select", func() error { _, err := Fill(at(StepSelect), nil); return err }},
		{"rendered before fill", func() error { _, err := Rendered(at(StepFill), BatchItem{}); return err }},
		{"finish while filling", func() error { _, _, err := Finish(at(StepFill)); return err }},
		{"finish with empty batch", func() error { _, _, err := Finish(at(StepDownload)); return err }},
		{"upload after confirm", func() error { _, err := Upload(at(StepSelect), maria, nil); return err }},
		{"select without key", func() error { _, err := Select(at(StepSelect), "", ""); return err }},
		{"back forwards", func() error { _, err := Back(at(StepReview), StepSelect); return err }},
		{"back to fill", func() error { _, err := Back(at(StepDownload), StepFill); return err }},
		{"back while rendering", func() error { _, err := Back(at(StepRender), StepSelect); return err }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var se *StepError
			assert.True(t, errors.As(c.run(), &se))
		})
	}
}

func TestConfirmRejectsEmptyFields(t *testing.T) {
	st := State{Step: StepReview}
	_, err := Confirm(st, extract.Identity{Name: "  ", CPF: "1", CEP: "", Address: "x"})
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []string{extract.FieldName, extract.FieldCEP}, ie.Fields)
}

func TestRenderFailedKeepsValues(t *testing.T) {
	st := State{Step: StepRender, TemplateKey: "canal", Values: map[string]string{"a": "b"}}
	st, err := RenderFailed(st)
	require.NoError(t, err)
	assert.Equal(t, StepFill, st.Step)
	assert.Equal(t, "b", st.Values["a"])
}

func TestBack(t *testing.T) {
	st := State{Step: StepDownload, Batch: []BatchItem{{ArtifactID: "a"}}}
	st, err := Back(st, StepReview)
	require.NoError(t, err)
	assert.Equal(t, StepReview, st.Step)
	assert.Len(t, st.Batch, 1)
}

func TestStateJSON(t *testing.T) {
	st := State{
		Step:        StepDownload,
		Identity:    maria,
		TemplateKey: "canal",
		Batch:       []BatchItem{{ArtifactID: "a1", Template: "canal", Pages: 2}},
	}
	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"step":"download"`)

	var back State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, st, back)

	assert.Error(t, json.Unmarshal([]byte(`{"step":"nowhere"}`), &back))
}
