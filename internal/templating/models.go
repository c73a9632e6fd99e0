package templating

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yegors/complaint-desk/internal/complaints"
	"github.com/yegors/complaint-desk/internal/storage/sqlite"
)

// Bucket is one bar of a dashboard chart
type Bucket struct {
	Label   string          `json:"label"`
	Count   int             `json:"count"`
	Percent decimal.Decimal `json:"percent"`
}

// Width returns the bar width as a CSS percentage value
func (b Bucket) Width() string {
	return b.Percent.StringFixed(1)
}

// ComplaintRow is a complaint formatted for display
type ComplaintRow struct {
	ID        int64  `json:"id"`
	Complaint string `json:"complaint"`
	Category  string `json:"category"`
	Location  string `json:"location"`
	Urgency   string `json:"urgency"`
}

// DashboardContext holds everything the dashboard shows
type DashboardContext struct {
	Timestamp  time.Time                 `json:"timestamp"`
	Complaints []*sqlite.ComplaintRecord `json:"complaints"`
	Rows       []ComplaintRow            `json:"-"`
	Total      int                       `json:"total"`
	ByCategory []Bucket                  `json:"by_category"`
	ByUrgency  []Bucket                  `json:"by_urgency"`
	HasData    bool                      `json:"has_data"`
}

// PageData is the input of the dashboard template
type PageData struct {
	Dashboard *DashboardContext
	Result    *complaints.Result
	Error     string
	Accept    string
	MaxSize   string
}
