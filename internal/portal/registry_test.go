package portal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentbook/internal/carriersync"
)

type stubAdapter struct {
	key     string
	members []carriersync.PortalMember
	err     error
	calls   int
}

func (a *stubAdapter) CarrierKey() string  { return a.key }
func (a *stubAdapter) CarrierName() string { return a.key }
func (a *stubAdapter) LoginURL() string    { return "https://example.com/" }

func (a *stubAdapter) FetchMembers(ctx context.Context, session carriersync.PortalSession) ([]carriersync.PortalMember, error) {
	a.calls++
	return a.members, a.err
}

func TestRegistryRoutesByKey(t *testing.T) {
	devoted := &stubAdapter{key: "devoted", members: []carriersync.PortalMember{
		{FirstName: "Alice", LastName: "Nguyen"},
	}}
	humana := &stubAdapter{key: "humana"}
	registry := NewRegistry([]Adapter{devoted, humana})

	members, err := registry.Fetch(context.Background(), "devoted", carriersync.PortalSession{})
	require.NoError(t, err)
	assert.Len(t, members, 1)
	assert.Equal(t, 1, devoted.calls)
	assert.Equal(t, 0, humana.calls)

	assert.ElementsMatch(t, []string{"devoted", "humana"}, registry.Keys())
}

func TestRegistryUnknownKey(t *testing.T) {
	registry := NewRegistry(nil)
	_, err := registry.Fetch(context.Background(), "aetna", carriersync.PortalSession{})
	require.Error(t, err)
}

func TestRegistryCircuitOpensAfterRepeatedFailures(t *testing.T) {
	broken := &stubAdapter{key: "humana", err: errors.New("portal 503")}
	registry := NewRegistry([]Adapter{broken})

	// Default breaker opens after five consecutive failures.
	for i := 0; i < 5; i++ {
		_, err := registry.Fetch(context.Background(), "humana", carriersync.PortalSession{})
		require.Error(t, err)
	}
	assert.Equal(t, 5, broken.calls)

	_, err := registry.Fetch(context.Background(), "humana", carriersync.PortalSession{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, 5, broken.calls, "open circuit must not call the adapter")
}
