package handlers

import (
	"log/slog"

	"github.com/01moynul/tradelink-golang/internal/approval"
	"github.com/01moynul/tradelink-golang/internal/chat"
	"github.com/01moynul/tradelink-golang/internal/hire"
	"github.com/01moynul/tradelink-golang/internal/quota"
	"github.com/01moynul/tradelink-golang/internal/review"
	"github.com/01moynul/tradelink-golang/internal/trades"
	"github.com/01moynul/tradelink-golang/internal/travel"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Hires     *hire.Manager
	Reviews   *review.Ledger
	Travel    *travel.Matcher
	Chat      *chat.Aggregator
	Quota     *quota.Guard
	Approvals *approval.Service
	Trades    *trades.Catalogue
	Logger    *slog.Logger
}
