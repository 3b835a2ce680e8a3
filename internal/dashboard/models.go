// Package dashboard aggregates book-of-business statistics for the home
// screen.
package dashboard

// CountBy is one bucket of a grouped count.
type CountBy struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthCount is one month of the enrollment trend.
type MonthCount struct {
	// Month is formatted YYYY-MM.
	Month          string `json:"month"`
	NewEnrollments int    `json:"new_enrollments"`
	Disenrollments int    `json:"disenrollments"`
}

// Stats is the full dashboard payload.
type Stats struct {
	TotalActiveClients   int          `json:"total_active_clients"`
	NewClientsThisMonth  int          `json:"new_clients_this_month"`
	LostClientsThisMonth int          `json:"lost_clients_this_month"`
	PendingEnrollments   int          `json:"pending_enrollments"`
	ByPlanType           []CountBy    `json:"by_plan_type"`
	ByCarrier            []CountBy    `json:"by_carrier"`
	ByState              []CountBy    `json:"by_state"`
	MonthlyTrend         []MonthCount `json:"monthly_trend"`
}
