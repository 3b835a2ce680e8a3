package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"agentbook/internal/carriersync"
)

const (
	humanaLoginURL = "https://agentportal.humana.com/Vantage/apps/index.html?agenthome=-1#!/"
	humanaEndpoint = "https://agentportal.humana.com/Vantage/api/businessCenter/members"
)

// Humana fetches the Vantage "My Humana Business" member list by replaying
// the portal session cookies against the endpoint that backs the Business
// Center grid.
type Humana struct {
	client   *http.Client
	endpoint string
}

// HumanaOption configures the adapter.
type HumanaOption func(*Humana)

// WithHumanaEndpoint overrides the members endpoint, used by tests.
func WithHumanaEndpoint(endpoint string) HumanaOption {
	return func(h *Humana) { h.endpoint = endpoint }
}

// WithHumanaHTTPClient overrides the HTTP client.
func WithHumanaHTTPClient(client *http.Client) HumanaOption {
	return func(h *Humana) { h.client = client }
}

// NewHumana constructs the Humana adapter.
func NewHumana(opts ...HumanaOption) *Humana {
	h := &Humana{client: defaultHTTPClient(), endpoint: humanaEndpoint}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Humana) CarrierKey() string  { return "humana" }
func (h *Humana) CarrierName() string { return "Humana" }
func (h *Humana) LoginURL() string    { return humanaLoginURL }

// humanaRow mirrors one Business Center grid row.
type humanaRow struct {
	Name          string  `json:"name"`
	HumanaID      *string `json:"humanaId"`
	PlanType      *string `json:"planType"`
	SalesProduct  *string `json:"salesProduct"`
	EffectiveDate *string `json:"effectiveDate"`
	Status        *string `json:"status"`
	StatusReason  *string `json:"statusReason"`
	InactiveDate  *string `json:"inactiveDate"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	BirthDate     *string `json:"birthDate"`
}

func (h *Humana) FetchMembers(ctx context.Context, session carriersync.PortalSession) ([]carriersync.PortalMember, error) {
	if len(session.Cookies) == 0 {
		return nil, fmt.Errorf("humana session has no cookies")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build humana request: %w", err)
	}
	for name, value := range session.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("humana request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("humana api returned %d: %s", resp.StatusCode, snippet)
	}

	var rows []humanaRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode humana response: %w", err)
	}

	members := make([]carriersync.PortalMember, 0, len(rows))
	for _, row := range rows {
		first, last := parseHumanaName(row.Name)
		members = append(members, carriersync.PortalMember{
			FirstName:     first,
			LastName:      last,
			MemberID:      row.HumanaID,
			DOB:           toISODate(row.BirthDate),
			PlanName:      row.SalesProduct,
			EffectiveDate: toISODate(row.EffectiveDate),
			EndDate:       toISODate(row.InactiveDate),
			Status:        row.Status,
			PolicyStatus:  row.StatusReason,
			Phone:         row.Phone,
			Email:         row.Email,
		})
	}
	return members, nil
}

// parseHumanaName splits the grid's "LAST, FIRST M" form. Rows without a
// comma are treated as a bare first name, matching how the portal renders
// single-token names.
func parseHumanaName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	comma := strings.IndexByte(name, ',')
	if comma < 0 {
		return name, ""
	}
	return strings.TrimSpace(name[comma+1:]), strings.TrimSpace(name[:comma])
}

var usDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// toISODate converts the grid's M/D/YYYY dates to YYYY-MM-DD. Values in any
// other shape pass through untouched.
func toISODate(raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	m := usDateRe.FindStringSubmatch(*raw)
	if m == nil {
		return raw
	}
	month, day := m[1], m[2]
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}
	iso := m[3] + "-" + month + "-" + day
	return &iso
}
