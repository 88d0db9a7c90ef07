package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerManager_StartServerMissingBinary(t *testing.T) {
	sm := NewServerManager()

	err := sm.StartServer(context.Background(), ServerConfig{
		Name:    "chatterbox",
		BinPath: "/definitely/not/here",
		Port:    18091,
	})
	assert.ErrorContains(t, err, "failed to start chatterbox server")
	assert.False(t, sm.Running("chatterbox", 18091))
}

func TestServerManager_StartServerDirectory(t *testing.T) {
	sm := NewServerManager()

	err := sm.StartServer(context.Background(), ServerConfig{
		Name:    "chatterbox",
		BinPath: t.TempDir(),
		Port:    18092,
	})
	assert.ErrorContains(t, err, "is a directory")
}

func TestServerManager_StopUnknown(t *testing.T) {
	sm := NewServerManager()

	err := sm.StopServer("chatterbox", 1)
	assert.ErrorContains(t, err, "not found")
}

func TestSameArgs(t *testing.T) {
	assert.True(t, sameArgs([]string{"a", "b"}, []string{"a", "b"}))
	assert.False(t, sameArgs([]string{"a"}, []string{"a", "b"}))
	assert.False(t, sameArgs([]string{"a", "c"}, []string{"a", "b"}))
	assert.True(t, sameArgs(nil, []string{}))
}
