package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"agentbook/internal/carriersync"
)

const (
	devotedLoginURL = "https://agent.devoted.com/"
	devotedEndpoint = "https://agent.devoted.com/graphql"
	devotedPageSize = 100
)

// devotedMembersQuery pages through the agent's book via the portal's
// GraphQL API. Query shape captured from DevTools; it is not a published
// contract.
const devotedMembersQuery = `
query AgentMembers($first: Int, $after: String) {
    agentMembers(first: $first, after: $after) {
        edges {
            node {
                firstName
                lastName
                memberId
                planName
                effectiveDate
                endDate
                status
            }
        }
        pageInfo {
            hasNextPage
            endCursor
        }
    }
}`

// Devoted fetches members from the Devoted Health agent portal using a
// bearer token captured at login.
type Devoted struct {
	client   *http.Client
	endpoint string
}

// DevotedOption configures the adapter.
type DevotedOption func(*Devoted)

// WithDevotedEndpoint overrides the GraphQL endpoint, used by tests.
func WithDevotedEndpoint(endpoint string) DevotedOption {
	return func(d *Devoted) { d.endpoint = endpoint }
}

// WithDevotedHTTPClient overrides the HTTP client.
func WithDevotedHTTPClient(client *http.Client) DevotedOption {
	return func(d *Devoted) { d.client = client }
}

// NewDevoted constructs the Devoted adapter.
func NewDevoted(opts ...DevotedOption) *Devoted {
	d := &Devoted{client: defaultHTTPClient(), endpoint: devotedEndpoint}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Devoted) CarrierKey() string  { return "devoted" }
func (d *Devoted) CarrierName() string { return "Devoted Health" }
func (d *Devoted) LoginURL() string    { return devotedLoginURL }

type devotedResponse struct {
	Data *struct {
		AgentMembers struct {
			Edges []struct {
				Node struct {
					FirstName     *string `json:"firstName"`
					LastName      *string `json:"lastName"`
					MemberID      *string `json:"memberId"`
					PlanName      *string `json:"planName"`
					EffectiveDate *string `json:"effectiveDate"`
					EndDate       *string `json:"endDate"`
					Status        *string `json:"status"`
				} `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool    `json:"hasNextPage"`
				EndCursor   *string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"agentMembers"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (d *Devoted) FetchMembers(ctx context.Context, session carriersync.PortalSession) ([]carriersync.PortalMember, error) {
	if session.BearerToken == "" {
		return nil, fmt.Errorf("devoted session has no bearer token")
	}

	var all []carriersync.PortalMember
	var cursor *string
	for {
		page, err := d.fetchPage(ctx, session.BearerToken, cursor)
		if err != nil {
			return nil, err
		}
		if len(page.Errors) > 0 {
			msgs := make([]string, 0, len(page.Errors))
			for _, e := range page.Errors {
				msgs = append(msgs, e.Message)
			}
			return nil, fmt.Errorf("devoted graphql errors: %s", strings.Join(msgs, "; "))
		}
		if page.Data == nil {
			return nil, fmt.Errorf("devoted response has no data")
		}

		for _, edge := range page.Data.AgentMembers.Edges {
			node := edge.Node
			member := carriersync.PortalMember{
				MemberID:      node.MemberID,
				PlanName:      node.PlanName,
				EffectiveDate: node.EffectiveDate,
				EndDate:       node.EndDate,
				Status:        node.Status,
			}
			if node.FirstName != nil {
				member.FirstName = *node.FirstName
			}
			if node.LastName != nil {
				member.LastName = *node.LastName
			}
			all = append(all, member)
		}

		info := page.Data.AgentMembers.PageInfo
		if !info.HasNextPage {
			return all, nil
		}
		cursor = info.EndCursor
	}
}

func (d *Devoted) fetchPage(ctx context.Context, token string, cursor *string) (*devotedResponse, error) {
	body, err := json.Marshal(map[string]any{
		"query": devotedMembersQuery,
		"variables": map[string]any{
			"first": devotedPageSize,
			"after": cursor,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode devoted query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build devoted request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("devoted request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("devoted api returned %d: %s", resp.StatusCode, snippet)
	}

	var page devotedResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode devoted response: %w", err)
	}
	return &page, nil
}
