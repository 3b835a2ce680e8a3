//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"

	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// RedpandaContainer is a running Kafka-compatible broker.
type RedpandaContainer struct {
	container *tcredpanda.Container
	Broker    string
}

// GetRedpanda returns the shared Redpanda container, starting it on first
// use.
func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.redpandaOnce.Do(func() {
		m.redpanda, m.redpandaErr = startRedpanda()
	})
	if m.redpandaErr != nil {
		t.Fatalf("start redpanda container: %v", m.redpandaErr)
	}
	return m.redpanda
}

func startRedpanda() (*RedpandaContainer, error) {
	ctx := context.Background()
	container, err := tcredpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.1.2")
	if err != nil {
		return nil, fmt.Errorf("run redpanda: %w", err)
	}
	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		return nil, fmt.Errorf("redpanda seed broker: %w", err)
	}
	return &RedpandaContainer{container: container, Broker: broker}, nil
}
