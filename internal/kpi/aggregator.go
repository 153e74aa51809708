package kpi

import (
	"math"
	"sort"
	"time"

	"github.com/chrisdamba/opsboard/internal/models"
)

// TrendPoint is one month bucket of the orders trend chart.
type TrendPoint struct {
	Month  string `json:"month"` // "2006-01"
	Orders int    `json:"orders"`
}

// StatusCount is one bar of the SLA breakdown chart.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

const (
	StatusOnTime = "On Time"
	StatusLate   = "Late"
)

// Snapshot is the full set of dashboard metrics computed from one load of
// the two tables. It is recomputed wholesale, never mutated.
//
// AvgDeliveryDays and LatePercentage are NaN when no order has a recorded
// delivery date; the presentation layer renders that as "no data", never
// as zero.
type Snapshot struct {
	TotalOrders          int                `json:"total_orders"`
	TotalRevenue         float64            `json:"total_revenue"`
	AvgDeliveryDays      float64            `json:"avg_delivery_days"`
	LatePercentage       float64            `json:"late_percentage"`
	MonthlyTrend         []TrendPoint       `json:"monthly_trend"`
	RevenueByPaymentType map[string]float64 `json:"revenue_by_payment_type"`
	SLABreakdown         []StatusCount      `json:"sla_breakdown"`
	ComputedAt           time.Time          `json:"computed_at"`
}

// Compute derives the whole snapshot. Pure function of its inputs apart
// from ComputedAt: loading identical tables twice yields identical metrics.
func Compute(orders []models.Order, payments []models.Payment, slaDays int) Snapshot {
	delivered := DeliveredOrders(orders, slaDays)
	avgDays, latePct := DeliveryMetrics(delivered)

	return Snapshot{
		TotalOrders:          TotalOrderCount(orders),
		TotalRevenue:         TotalRevenue(payments),
		AvgDeliveryDays:      avgDays,
		LatePercentage:       latePct,
		MonthlyTrend:         MonthlyTrend(delivered),
		RevenueByPaymentType: RevenueByPaymentType(payments),
		SLABreakdown:         SLABreakdown(delivered),
		ComputedAt:           time.Now().UTC(),
	}
}

// DeliveredOrders filters to rows with a recorded delivery date and derives
// the per-row delivery duration and lateness flag. The duration is the
// whole-day difference with any fractional day dropped: 6 days 20 hours is
// 6 days, not 7. Orders delivered in more than slaDays whole days are late;
// exactly slaDays is on time.
func DeliveredOrders(orders []models.Order, slaDays int) []models.DeliveredOrder {
	var delivered []models.DeliveredOrder
	for _, order := range orders {
		if !order.Delivered() {
			continue
		}
		days := int(order.DeliveredAt.Sub(order.PurchasedAt) / (24 * time.Hour))
		delivered = append(delivered, models.DeliveredOrder{
			ID:           order.ID,
			PurchasedAt:  order.PurchasedAt,
			DeliveredAt:  *order.DeliveredAt,
			DeliveryDays: days,
			Late:         days > slaDays,
		})
	}
	return delivered
}

// TotalOrderCount counts distinct order IDs. The orders table is at
// line-item granularity, so a plain row count would overstate it.
func TotalOrderCount(orders []models.Order) int {
	seen := make(map[string]struct{}, len(orders))
	for _, order := range orders {
		seen[order.ID] = struct{}{}
	}
	return len(seen)
}

// TotalRevenue sums every payment row. An order settled across several
// payment rows contributes each of them.
func TotalRevenue(payments []models.Payment) float64 {
	var total float64
	for _, payment := range payments {
		total += payment.Value
	}
	return total
}

// DeliveryMetrics returns the mean delivery duration in days and the late
// percentage over the delivery-dated subset. Both are NaN for an empty
// subset; zero would read as a perfect SLA record.
func DeliveryMetrics(delivered []models.DeliveredOrder) (avgDays, latePct float64) {
	if len(delivered) == 0 {
		return math.NaN(), math.NaN()
	}

	var daySum, late int
	for _, order := range delivered {
		daySum += order.DeliveryDays
		if order.Late {
			late++
		}
	}
	n := float64(len(delivered))
	return float64(daySum) / n, 100 * float64(late) / n
}

// MonthlyTrend buckets delivered orders by calendar month of purchase and
// counts distinct orders per bucket, ascending by month key.
func MonthlyTrend(delivered []models.DeliveredOrder) []TrendPoint {
	buckets := make(map[string]map[string]struct{})
	for _, order := range delivered {
		month := order.PurchasedAt.Format("2006-01")
		if buckets[month] == nil {
			buckets[month] = make(map[string]struct{})
		}
		buckets[month][order.ID] = struct{}{}
	}

	months := make([]string, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	sort.Strings(months)

	trend := make([]TrendPoint, 0, len(months))
	for _, month := range months {
		trend = append(trend, TrendPoint{Month: month, Orders: len(buckets[month])})
	}
	return trend
}

// RevenueByPaymentType sums payment values per payment type. The category
// set is whatever the data carries; unseen types get their own group.
// Summing all groups reproduces TotalRevenue exactly.
func RevenueByPaymentType(payments []models.Payment) map[string]float64 {
	revenue := make(map[string]float64)
	for _, payment := range payments {
		revenue[payment.Type] += payment.Value
	}
	return revenue
}

// SLABreakdown returns the on-time/late counts labeled for the chart.
func SLABreakdown(delivered []models.DeliveredOrder) []StatusCount {
	var late int
	for _, order := range delivered {
		if order.Late {
			late++
		}
	}
	return []StatusCount{
		{Status: StatusOnTime, Count: len(delivered) - late},
		{Status: StatusLate, Count: late},
	}
}
