// Package services – pipeline metrics
//
// Prometheus collectors for the receipt pipeline. Labels are deliberately
// absent or low-cardinality (rejection reason, alert type); product and
// store names never become labels.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// itemsSanitizedTotal counts receipt line items accepted by the sanitizer.
	itemsSanitizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "receipt_items_sanitized_total",
			Help: "Total number of receipt items that passed sanitization.",
		},
	)

	// itemsRejectedTotal counts rejected line items by rejection reason.
	itemsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_items_rejected_total",
			Help: "Total number of receipt items rejected during sanitization.",
		},
		[]string{"reason"},
	)

	// pricePointsTotal counts observations appended to the price index.
	pricePointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_points_recorded_total",
			Help: "Total number of price points appended to the index.",
		},
	)

	// productsCreatedTotal counts new canonical products seeded by receipts.
	productsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "products_created_total",
			Help: "Total number of canonical products created.",
		},
	)

	// fuzzyMatchesTotal counts receipt lines attached to an existing product
	// by fuzzy rather than exact key match.
	fuzzyMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_fuzzy_matches_total",
			Help: "Total number of items matched to a product by fuzzy matching.",
		},
	)

	// aliasMatchesTotal counts receipt lines resolved through a previously
	// learned alias, skipping the scorer.
	aliasMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_alias_matches_total",
			Help: "Total number of items matched to a product by a learned alias.",
		},
	)

	// alertsSentTotal counts delivered price alerts by alert type.
	alertsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_alerts_sent_total",
			Help: "Total number of price alerts sent.",
		},
		[]string{"alert_type"},
	)

	// alertsSuppressedTotal counts alerts withheld by a throttle gate.
	alertsSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_alerts_suppressed_total",
			Help: "Total number of price alerts suppressed before sending.",
		},
		[]string{"gate"},
	)
)

func init() {
	prometheus.MustRegister(
		itemsSanitizedTotal,
		itemsRejectedTotal,
		pricePointsTotal,
		productsCreatedTotal,
		fuzzyMatchesTotal,
		aliasMatchesTotal,
		alertsSentTotal,
		alertsSuppressedTotal,
	)
}
