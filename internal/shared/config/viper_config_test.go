package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ViperConfigSuite struct {
	suite.Suite
	dir string
}

func (s *ViperConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ViperConfigSuite) writeFile(name, content string) string {
	path := filepath.Join(s.dir, name)
	require.NoError(s.T(), os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ViperConfigSuite) TestInit_YAML() {
	path := s.writeFile("config.yaml", `
server:
  port: 9090
idempotency:
  backend: redis
  ttl: 10m
  sweep: true
cors:
  allow_origins:
    - https://a.example
    - https://b.example
`)

	cfg, err := Init(Options{YAMLPath: path, EnvPath: filepath.Join(s.dir, ".env")})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "yaml", cfg.Source())
	assert.Equal(s.T(), 9090, cfg.GetInt("server.port"))
	assert.Equal(s.T(), "redis", cfg.GetString("idempotency.backend"))
	assert.Equal(s.T(), 10*time.Minute, cfg.GetDuration("idempotency.ttl"))
	assert.True(s.T(), cfg.GetBool("idempotency.sweep"))
	assert.Equal(s.T(), []string{"https://a.example", "https://b.example"}, cfg.GetStringSlice("cors.allow_origins"))
	assert.True(s.T(), cfg.IsSet("idempotency.backend"))
	assert.False(s.T(), cfg.IsSet("idempotency.keyspace"))
}

func (s *ViperConfigSuite) TestInit_EnvironmentOverridesFile() {
	path := s.writeFile("config.yaml", "idempotency:\n  backend: redis\n")
	s.T().Setenv("IDEMPOTENCY_BACKEND", "memory")

	cfg, err := Init(Options{YAMLPath: path})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "memory", cfg.GetString("idempotency.backend"))
}

func (s *ViperConfigSuite) TestInit_EnvPrefix() {
	path := s.writeFile("config.yaml", "idempotency:\n  backend: redis\n")
	s.T().Setenv("IDEM_IDEMPOTENCY_BACKEND", "cassandra")
	s.T().Setenv("IDEMPOTENCY_BACKEND", "memory")

	cfg, err := Init(Options{YAMLPath: path, EnvPrefix: "IDEM"})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "cassandra", cfg.GetString("idempotency.backend"))
}

func (s *ViperConfigSuite) TestInit_EnvFileFallback() {
	envPath := s.writeFile(".env", "SERVER_PORT=7070\n")

	cfg, err := Init(Options{YAMLPath: filepath.Join(s.dir, "missing.yaml"), EnvPath: envPath})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "env", cfg.Source())
	assert.Equal(s.T(), 7070, cfg.GetInt("server_port"))
}

func (s *ViperConfigSuite) TestInit_NoFile() {
	_, err := Init(Options{YAMLPath: filepath.Join(s.dir, "missing.yaml"), EnvPath: filepath.Join(s.dir, ".env")})
	require.Error(s.T(), err)
	assert.ErrorContains(s.T(), err, "no config file found")
}

func (s *ViperConfigSuite) TestInit_MalformedYAML() {
	path := s.writeFile("config.yaml", "server: [port\n")

	_, err := Init(Options{YAMLPath: path})
	require.Error(s.T(), err)
	assert.ErrorContains(s.T(), err, "failed to read yaml file")
}

func (s *ViperConfigSuite) TestWatchChanges_ReloadsAndNotifies() {
	path := s.writeFile("config.yaml", "logging:\n  level: info\n")

	cfg, err := Init(Options{YAMLPath: path})
	require.NoError(s.T(), err)

	reloaded := make(chan string, 16)
	cfg.OnChange(func() {
		select {
		case reloaded <- cfg.GetString("logging.level"):
		default:
		}
	})
	cfg.WatchChanges()
	defer cfg.StopWatching()

	require.NoError(s.T(), os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case level := <-reloaded:
			if level == "debug" {
				return
			}
		case <-deadline:
			s.T().Fatal("config reload callback did not observe the new level")
		}
	}
}

func TestViperConfigSuite(t *testing.T) {
	suite.Run(t, new(ViperConfigSuite))
}
