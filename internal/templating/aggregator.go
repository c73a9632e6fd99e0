package templating

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yegors/complaint-desk/internal/classification"
	"github.com/yegors/complaint-desk/internal/extraction"
	"github.com/yegors/complaint-desk/internal/storage/sqlite"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// ComplaintSource reads stored complaints
type ComplaintSource interface {
	GetAllComplaints(ctx context.Context) ([]*sqlite.ComplaintRecord, error)
	CountBy(ctx context.Context, field string) ([]sqlite.CountRow, error)
}

var urgencyOrder = []string{extraction.UrgencyHigh, extraction.UrgencyNormal}

var hundred = decimal.NewFromInt(100)

// DataAggregator collects and formats complaint data for the dashboard
type DataAggregator struct {
	source ComplaintSource
	logger *logger.Logger
}

// NewDataAggregator creates a new data aggregator
func NewDataAggregator(source ComplaintSource, logger *logger.Logger) *DataAggregator {
	return &DataAggregator{
		source: source,
		logger: logger.Named("dashboard-aggregator"),
	}
}

// GetDashboardContext loads every complaint together with the category and
// urgency breakdowns
func (da *DataAggregator) GetDashboardContext(ctx context.Context) (*DashboardContext, error) {
	records, err := da.source.GetAllComplaints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load complaints: %w", err)
	}

	dashboard := &DashboardContext{
		Timestamp:  time.Now().UTC(),
		Complaints: records,
		Rows:       make([]ComplaintRow, 0, len(records)),
		Total:      len(records),
		HasData:    len(records) > 0,
	}

	for _, r := range records {
		location := r.Location
		if !r.HasLocation {
			location = extraction.NotDetected
		}
		dashboard.Rows = append(dashboard.Rows, ComplaintRow{
			ID:        r.ID,
			Complaint: r.Complaint,
			Category:  r.Category,
			Location:  location,
			Urgency:   r.Urgency,
		})
	}

	if !dashboard.HasData {
		dashboard.ByCategory = []Bucket{}
		dashboard.ByUrgency = []Bucket{}
		return dashboard, nil
	}

	byCategory, err := da.source.CountBy(ctx, sqlite.FieldCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	byUrgency, err := da.source.CountBy(ctx, sqlite.FieldUrgency)
	if err != nil {
		return nil, fmt.Errorf("failed to count urgency: %w", err)
	}

	dashboard.ByCategory = buildBuckets(byCategory, dashboard.Total, classification.Categories)
	dashboard.ByUrgency = buildBuckets(byUrgency, dashboard.Total, urgencyOrder)

	da.logger.Debug("Dashboard context aggregated",
		logger.Int("complaints", dashboard.Total),
		logger.Int("categories", len(dashboard.ByCategory)),
		logger.Int("urgency_levels", len(dashboard.ByUrgency)))

	return dashboard, nil
}

// buildBuckets turns grouped counts into chart bars, largest first. Ties
// keep the order of the known labels; unknown labels go last, alphabetically.
func buildBuckets(counts []sqlite.CountRow, total int, order []string) []Bucket {
	rank := make(map[string]int, len(order))
	for i, label := range order {
		rank[label] = i
	}

	buckets := make([]Bucket, 0, len(counts))
	for _, c := range counts {
		buckets = append(buckets, Bucket{
			Label:   c.Value,
			Count:   c.Count,
			Percent: percentOf(c.Count, total),
		})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		ri, iKnown := rank[buckets[i].Label]
		rj, jKnown := rank[buckets[j].Label]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return buckets[i].Label < buckets[j].Label
		}
	})

	return buckets
}

func percentOf(count, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(1)
}
