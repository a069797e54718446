package runner

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/apps"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestCommandPlainApp(t *testing.T) {
	r := New([]string{"alacritty", "-e"}, nil)
	argv, err := r.Command(apps.New("Firefox", "", []string{"firefox", "--new-window"}, false))
	require.NoError(t, err)
	assert.Equal(t, []string{"firefox", "--new-window"}, argv)
}

func TestCommandTerminalWithTermCmd(t *testing.T) {
	r := New([]string{"alacritty", "-e"}, nil)
	argv, err := r.Command(apps.New("htop", "", []string{"htop"}, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"alacritty", "-e", "htop"}, argv)
}

func TestCommandTerminalFallsBackToTERM(t *testing.T) {
	r := New(nil, nil)
	r.lookupEnv = env(map[string]string{"TERM": "xterm"})
	argv, err := r.Command(apps.New("htop", "", []string{"htop", "-d", "5"}, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"xterm", "-e", "htop", "-d", "5"}, argv)
}

func TestCommandTerminalWithoutTERM(t *testing.T) {
	r := New(nil, nil)
	r.lookupEnv = env(nil)
	_, err := r.Command(apps.New("htop", "", []string{"htop"}, true))
	assert.ErrorIs(t, err, ErrNoTerminal)

	var runErr *Error
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, []string{"htop"}, runErr.Command)
}

func TestCommandEmptyExec(t *testing.T) {
	_, err := New(nil, nil).Command(apps.App{Name: "Broken"})
	require.Error(t, err)
}

func TestRunStartsInOwnProcessGroup(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	pid, err := New(nil, nil).Run(apps.New("Sleep", "", []string{sleep, "5"}, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = syscall.Kill(pid, syscall.SIGKILL) })

	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid)
}

func TestRunMissingBinary(t *testing.T) {
	_, err := New(nil, nil).Run(apps.New("Ghost", "", []string{"hopper-test-no-such-binary"}, false))
	var runErr *Error
	require.ErrorAs(t, err, &runErr)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.False(t, errors.Is(err, ErrNoTerminal))
}

func TestRunMissingTerminal(t *testing.T) {
	r := New(nil, nil)
	r.lookupEnv = env(map[string]string{"TERM": "hopper-test-no-such-terminal"})
	_, err := r.Run(apps.New("htop", "", []string{"htop"}, true))
	assert.ErrorIs(t, err, ErrNoTerminal)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
