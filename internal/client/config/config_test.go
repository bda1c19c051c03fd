package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/flagx"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(flagx.ConfigFileEnv, "")

	cfg, err := load(nil)
	require.NoError(t, err)

	want := &Config{ServerEndpointAddr: "127.0.0.1:50051", RequestTimeout: 10 * time.Second}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_JSONThenFlags(t *testing.T) {
	t.Setenv(flagx.ConfigFileEnv, "")

	path := filepath.Join(t.TempDir(), "vaultctl.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_endpoint_addr":"vault:50051","request_timeout":"3s"}`), 0o600))

	cfg, err := load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "vault:50051", cfg.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)

	cfg, err = load([]string{"-c", path, "-a", "other:1", "-t", "1m", "-unknown", "x"})
	require.NoError(t, err)
	assert.Equal(t, "other:1", cfg.ServerEndpointAddr)
	assert.Equal(t, time.Minute, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(flagx.ConfigFileEnv, "")

	_, err := load([]string{"-t", "soon"})
	assert.Error(t, err)

	_, err = load([]string{"-t", "0s"})
	assert.Error(t, err)

	_, err = load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = load([]string{"-c", bad})
	assert.Error(t, err)
}
