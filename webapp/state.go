package webapp

import (
	"context"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/zeptools/gw-contracts/flow"
	"github.com/zeptools/gw-contracts/web/session"
)

// loadState returns the flow state of the session, the initial state when none is stored.
func (a *App) loadState(ctx context.Context, s *session.Session) (flow.State, error) {
	data, ok, err := a.Sessions.GetBlob(ctx, s, blobFlow)
	if err != nil {
		return flow.State{}, fmt.Errorf("load flow state: %w", err)
	}
	if !ok {
		return flow.Reset(), nil
	}
	var st flow.State
	if err = json.Unmarshal(data, &st); err != nil {
		return flow.State{}, fmt.Errorf("decode flow state: %w", err)
	}
	return st, nil
}

func (a *App) saveState(ctx context.Context, s *session.Session, st flow.State) error {
	data, err := json.Marshal(st, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("encode flow state: %w", err)
	}
	if err = a.Sessions.SetBlob(ctx, s, blobFlow, data); err != nil {
		return fmt.Errorf("store flow state: %w", err)
	}
	return nil
}
