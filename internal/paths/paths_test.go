package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := UserConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/gardener", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		orig := platformDir.homeDir
		platformDir.homeDir = func() (string, error) { return "/home/gardener", nil }
		t.Cleanup(func() { platformDir.homeDir = orig })

		got, err := UserConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/gardener/.config/gardener", got)
	})

	t.Run("home lookup failure", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		orig := platformDir.homeDir
		platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
		t.Cleanup(func() { platformDir.homeDir = orig })

		_, err := UserConfigDir()
		assert.Error(t, err)
	})
}

func TestResolveConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	cwd, err := os.Getwd()
	require.NoError(t, err)
	local := filepath.Join(cwd, DefaultConfigFile)

	tests := []struct {
		name   string
		flag   string
		envVal string
		want   string
	}{
		{name: "flag wins over env", flag: "/explicit/g.yaml", envVal: "/env/g.yaml", want: "/explicit/g.yaml"},
		{name: "env wins when flag empty", envVal: "/env/g.yaml", want: "/env/g.yaml"},
		{name: "working directory default", want: local},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfig, tt.envVal)
			got, err := ResolveConfigFile(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveConfigFile_UserConfig(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	user := filepath.Join(dir, "xdg", "gardener", DefaultConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(user), 0o755))
	require.NoError(t, os.WriteFile(user, []byte("{}\n"), 0o644))

	got, err := ResolveConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, user, got, "user config used when no local file")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	local := filepath.Join(cwd, DefaultConfigFile)
	require.NoError(t, os.WriteFile(local, []byte("{}\n"), 0o644))
	got, err = ResolveConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, local, got, "local file wins")
}

func TestResolveDatabase(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name        string
		flag        string
		configValue string
		configDir   string
		envVal      string
		want        string
	}{
		{
			name: "flag wins over all",
			flag: "/flag/g.db", configValue: "/config/g.db", envVal: "/env/g.db",
			want: "/flag/g.db",
		},
		{
			name:        "config wins over env",
			configValue: "/config/g.db", envVal: "/env/g.db",
			want: "/config/g.db",
		},
		{
			name:        "relative config value resolves against config dir",
			configValue: "data/g.db", configDir: "/projects/exp1",
			want: "/projects/exp1/data/g.db",
		},
		{
			name:   "env wins when flag and config empty",
			envVal: "/env/g.db",
			want:   "/env/g.db",
		},
		{
			name: "working directory default",
			want: filepath.Join(cwd, DefaultDatabaseFile),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDatabase, tt.envVal)
			got, err := ResolveDatabase(tt.flag, tt.configValue, tt.configDir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDatabase_AbsolutePath(t *testing.T) {
	t.Run("relative flag becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDatabase, "")
		got, err := ResolveDatabase("relative/g.db", "", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})

	t.Run("relative env becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDatabase, "relative/env.db")
		got, err := ResolveDatabase("", "", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}
