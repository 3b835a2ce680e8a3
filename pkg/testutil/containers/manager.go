//go:build integration

// Package containers manages shared test containers for integration suites.
// Containers start once per test binary and are reused by every suite; the
// testcontainers reaper tears them down when the process exits.
package containers

import (
	"sync"
)

// Manager hands out the shared containers.
type Manager struct {
	postgresOnce sync.Once
	postgres     *PostgresContainer
	postgresErr  error

	redisOnce sync.Once
	redis     *RedisContainer
	redisErr  error

	redpandaOnce sync.Once
	redpanda     *RedpandaContainer
	redpandaErr  error
}

var manager = &Manager{}

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return manager
}
