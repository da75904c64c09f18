package tracking

// Stats is an aggregate snapshot of the tracking collection.
type Stats struct {
	Total        int     `json:"total"`
	Clicked      int     `json:"clicked"`
	Expired      int     `json:"expired"`
	DueForResend int     `json:"due_for_resend"`
	ClickRate    float64 `json:"click_rate"` // percentage, 0 when Total is 0
}
