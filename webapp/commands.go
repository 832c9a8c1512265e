package webapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zeptools/gw-contracts/db/kvdb"
	"github.com/zeptools/gw-contracts/uds"
)

// Commands is the control socket command set.
func (a *App) Commands() map[string]uds.CmdHnd {
	return map[string]uds.CmdHnd{
		"users": {
			Desc: "list users",
			Fn: func(ctx context.Context, _ []string, w io.Writer) error {
				list, err := a.Users.List(ctx)
				if err != nil {
					return err
				}
				for _, u := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.Username, u.Role, u.Unidade)
				}
				return nil
			},
		},
		"user-remove": {
			Desc:  "remove a user",
			Usage: "user-remove <username>",
			Fn: func(ctx context.Context, args []string, w io.Writer) error {
				if len(args) != 1 {
					return errors.New("usage: user-remove <username>")
				}
				if err := a.Users.Remove(ctx, args[0], "control-socket"); err != nil {
					return err
				}
				fmt.Fprintf(w, "removed %s\n", args[0])
				return nil
			},
		},
		"templates": {
			Desc: "list contract templates",
			Fn: func(_ context.Context, _ []string, w io.Writer) error {
				for _, t := range a.Catalog.List() {
					fmt.Fprintf(w, "%s\t%s\t%d fields\n", t.Key, t.Title, len(t.Fields))
				}
				return nil
			},
		},
		"sweep": {
			Desc: "purge expired entries of the in-memory KV store",
			Fn: func(_ context.Context, _ []string, w io.Writer) error {
				sw, ok := a.Artifacts.KV.(kvdb.Sweeper)
				if !ok {
					return kvdb.ErrNotSupported
				}
				fmt.Fprintf(w, "swept %d\n", sw.Sweep(time.Now()))
				return nil
			},
		},
		"stats": {
			Desc: "show counters",
			Fn: func(ctx context.Context, _ []string, w io.Writer) error {
				sessions, err := a.Sessions.Count(ctx)
				if err != nil {
					return err
				}
				arts, err := a.Artifacts.Count(ctx)
				if err != nil {
					return err
				}
				list, err := a.Users.List(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "sessions\t%d\n", sessions)
				fmt.Fprintf(w, "artifacts\t%d\n", arts)
				fmt.Fprintf(w, "users\t%d\n", len(list))
				fmt.Fprintf(w, "templates\t%d\n", a.Catalog.Len())
				fmt.Fprintf(w, "throttle_buckets\t%d\n", a.Throttle.Len())
				return nil
			},
		},
	}
}
