package browser

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxdo-automation/pkg/config"
)

func TestResetDisplayEnv(t *testing.T) {
	t.Setenv("DISPLAY", ":0")
	t.Setenv("DYLD_LIBRARY_PATH", "/opt/lib")

	ResetDisplayEnv()

	_, ok := os.LookupEnv("DISPLAY")
	assert.False(t, ok)
	_, ok = os.LookupEnv("DYLD_LIBRARY_PATH")
	assert.False(t, ok)
}

func TestNewPageBeforeLaunch(t *testing.T) {
	b := New(Options{Config: config.DefaultConfig()})

	_, err := b.NewPage(context.Background(), config.DefaultHomeURL)
	assert.ErrorContains(t, err, "not launched")
}

func TestCloseWithoutLaunch(t *testing.T) {
	b := New(Options{Config: config.DefaultConfig()})

	require.NoError(t, b.Close())
	// a second close is a no-op
	require.NoError(t, b.Close())
}

func TestLaunchCancelled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Browser.Bin = "/nonexistent/chromium"
	b := New(Options{Config: cfg})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, b.Launch(ctx))
	assert.NoError(t, b.Close())
}
