package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readResponse reads lines up to the "." terminator.
func readResponse(t *testing.T, r *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "." {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestService(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "ctl.sock")
	cmds := map[string]CmdHnd{
		"echo": {Desc: "repeat args", Usage: "<words...>", Fn: func(_ context.Context, args []string, w io.Writer) error {
			_, err := fmt.Fprintln(w, strings.Join(args, " "))
			return err
		}},
		"fail": {Desc: "always fails", Fn: func(context.Context, []string, io.Writer) error {
			return errors.New("nope")
		}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewService(ctx, sock, cmds)
	require.NoError(t, s.Start())

	info, err := os.Stat(sock)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	_, _ = fmt.Fprintln(conn, "echo hello world")
	assert.Equal(t, []string{"hello world"}, readResponse(t, r))

	_, _ = fmt.Fprintln(conn, "fail")
	assert.Equal(t, []string{"error: nope"}, readResponse(t, r))

	_, _ = fmt.Fprintln(conn, "bogus")
	assert.Equal(t, []string{"unknown command: bogus"}, readResponse(t, r))

	_, _ = fmt.Fprintln(conn, "help")
	help := readResponse(t, r)
	require.Len(t, help, 4)
	assert.True(t, strings.HasPrefix(help[2], "echo <words...>"))
	assert.True(t, strings.HasPrefix(help[3], "fail"))

	_, _ = fmt.Fprintln(conn, "quit")
	_, err = r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)

	s.Stop()
	select {
	case err := <-s.Done():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("uds service did not stop")
	}
	require.Eventually(t, func() bool {
		_, err := os.Stat(sock)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}
