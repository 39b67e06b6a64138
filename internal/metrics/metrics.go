// Package metrics содержит prometheus-счётчики ядра выплат.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApprovalsTotal - количество успешных одобрений (вызовов, не позиций).
	ApprovalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payouts_approvals_total",
		Help: "Total number of successful payout approvals",
	})

	// ItemFlagsTotal - количество зафлаганных позиций.
	ItemFlagsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payouts_item_flags_total",
		Help: "Total number of payout items flagged for review",
	})

	// CreditedAmountTotal - сумма, зачисленная на кошельки.
	CreditedAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payouts_credited_amount_total",
		Help: "Total amount credited to creator wallets",
	})

	// RequestsCompletedTotal - количество завершённых заявок.
	RequestsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payouts_requests_completed_total",
		Help: "Total number of payout requests promoted to completed",
	})
)
