package controlplane

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoRoundTrip(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "plcrun.sock")

	srv, err := New(sockPath, func(line string) string {
		return "ok:" + line
	}, slog.Default())
	require.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	fmt.Fprintln(conn, "status")
	reader := bufio.NewReader(conn)
	reply, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ok:status\n", reply)
}

func TestBindFailsOnUnwritableDir(t *testing.T) {
	_, err := New("/nonexistent-dir-xyz/plcrun.sock", func(string) string { return "" }, slog.Default())
	assert.Error(t, err)
}
