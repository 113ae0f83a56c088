package service_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/lspbridge/client"
	"github.com/wharflab/lspbridge/protocol"
	"github.com/wharflab/lspbridge/service"
)

var fakeServerBin string

// TestMain builds service/testdata/fakeserver once, the same
// build-a-real-subprocess pattern the teacher's internal/ai/acp tests use
// (runner_test.go's buildTestAgent), since Runner/Service's respawn
// behavior can only be exercised against a real OS process.
func TestMain(m *testing.M) {
	bin, err := buildFakeServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fakeServerBin = bin
	os.Exit(m.Run())
}

func buildFakeServer() (string, error) {
	tmp, err := os.MkdirTemp("", "lspbridge-fakeserver-*")
	if err != nil {
		return "", fmt.Errorf("mkdtemp: %w", err)
	}
	name := "fakeserver"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	out := filepath.Join(tmp, name)

	cmd := exec.Command("go", "build", "-o", out, "./testdata/fakeserver")
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build fakeserver: %w", err)
	}
	return out, nil
}

func newTestConfig(t *testing.T, mode string) service.Config {
	t.Helper()
	return service.Config{
		Command:        []string{fakeServerBin, "-mode=" + mode},
		Cwd:            t.TempDir(),
		TerminateGrace: 50 * time.Millisecond,
		NewClientOptions: func(int) client.Options {
			return client.Options{ClientInfo: protocol.ClientInfo{Name: "lspbridge-service-test"}}
		},
	}
}

func TestServiceStartReachesReady(t *testing.T) {
	svc, err := service.New(newTestConfig(t, "happy"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	c := svc.Client()
	require.NotNil(t, c)
	assert.Equal(t, client.Ready, c.State())
	assert.Equal(t, protocol.SyncFull, c.SyncKind())
}

func TestServiceRespawnsAfterCrash(t *testing.T) {
	svc, err := service.New(newTestConfig(t, "crash"))
	require.NoError(t, err)

	ready := make(chan *client.Client, 8)
	svc.OnReady(func(c *client.Client) {
		select {
		case ready <- c:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	first := <-ready
	require.NotNil(t, first)

	// The fakeserver crashes shortly after initialize; the supervisor
	// must respawn and surface a *different* Client via OnReady.
	select {
	case second := <-ready:
		require.NotNil(t, second)
		assert.NotSame(t, first, second)
	case <-time.After(8 * time.Second):
		t.Fatal("timed out waiting for respawned client")
	}
}

func TestServiceStopTerminatesCleanly(t *testing.T) {
	svc, err := service.New(newTestConfig(t, "happy"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, svc.Start(ctx))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, svc.Stop(stopCtx))
}

func TestServiceBindStartsLazily(t *testing.T) {
	svc, err := service.New(newTestConfig(t, "happy"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := svc.Bind(ctx)
	require.NoError(t, err)
	require.NotNil(t, c)
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	assert.Equal(t, client.Ready, c.State())
}
