package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-i", "5m", "-a", "localhost"},
			allowed: []string{"-i"},
			want:    []string{"-i", "5m"},
		},
		{
			name:    "equals form",
			args:    []string{"-i=30s", "-a", "localhost"},
			allowed: []string{"-i"},
			want:    []string{"-i=30s"},
		},
		{
			name:    "order preserved",
			args:    []string{"--config=first.json", "-c", "second.json", "-x", "1"},
			allowed: []string{"-c", "--config"},
			want:    []string{"--config=first.json", "-c", "second.json"},
		},
		{
			name:    "unknown flags dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "value looks like a flag",
			args:    []string{"-c", "-w", "4"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "nil args",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFile(t *testing.T) {
	t.Run("short flag", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "")
		assert.Equal(t, "a.json", ConfigFile([]string{"-a", ":1", "-c", "a.json"}))
	})
	t.Run("long flag wins over env", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "env.json")
		assert.Equal(t, "b.json", ConfigFile([]string{"-config=b.json"}))
	})
	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "env.json")
		assert.Equal(t, "env.json", ConfigFile([]string{"-i", "1m"}))
	})
	t.Run("nothing", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "")
		assert.Empty(t, ConfigFile(nil))
	})
}
