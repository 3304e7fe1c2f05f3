package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("USER", "ada")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "ada", cfg.LearnerID)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 180*time.Minute, cfg.Exam.Duration)
	assert.True(t, cfg.Exam.TimerEnabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "quiz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
learner_id: grace
exam:
  duration: 90m
  timer_enabled: false
database:
  path: /tmp/q.db
`), 0o644))

	t.Setenv("QUIZCYCLE_LEARNER_ID", "linus")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "linus", cfg.LearnerID, "env overrides file")
	assert.Equal(t, 90*time.Minute, cfg.Exam.Duration)
	assert.False(t, cfg.Exam.TimerEnabled)
	assert.Equal(t, "/tmp/q.db", cfg.Database.Path)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{Database: Database{Driver: DriverSQLite}, Exam: Exam{Duration: time.Minute}}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"sqlite ok", func(c *Config) {}, nil},
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }, ErrMissingURL},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, ErrUnknownDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

	c := base
	c.Exam.Duration = 0
	assert.Error(t, c.Validate())
}
