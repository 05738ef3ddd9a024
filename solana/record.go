package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/activity"
	"github.com/AlexZinkM/pump-desk/internal/common"
	"github.com/AlexZinkM/pump-desk/internal/model"

	"go.uber.org/zap"
)

// Journal stores outcomes for the history view
type Journal interface {
	Record(ctx context.Context, r model.Record) (int64, error)
}

// Recorder writes outcomes to the activity feed, the journal and the log
type Recorder struct {
	feed    *activity.Feed
	journal Journal
	logger  *zap.Logger
	now     func() time.Time
}

func NewRecorder(feed *activity.Feed, journal Journal, logger *zap.Logger) *Recorder {
	return &Recorder{feed: feed, journal: journal, logger: logger, now: time.Now}
}

// Outcome records one flow outcome. A journal failure is logged and otherwise ignored.
func (r *Recorder) Outcome(ctx context.Context, label string, o model.Outcome) {
	details := map[string]string{
		"action": o.Action,
		"wallet": o.WalletName,
		"amount": o.Amount,
	}
	if o.Mint != "" {
		details["mint"] = o.Mint
	}

	if o.OK() {
		details["signature"] = o.Signature()
		r.feed.Log(activity.KindSuccess, label, successMessage(o), details)
		r.logger.Info("Flow succeeded",
			zap.String("label", label),
			zap.String("wallet", o.WalletID),
			zap.String("signature", o.Signature()))
	} else {
		details["stage"] = string(o.Error.Stage)
		r.feed.Log(activity.KindError, label, fmt.Sprintf("%s: %s", walletLabel(o), o.Error.Message), details)
		r.logger.Warn("Flow failed",
			zap.String("label", label),
			zap.String("wallet", o.WalletID),
			zap.String("stage", string(o.Error.Stage)),
			zap.String("error", o.Error.Message))
	}

	if _, err := r.journal.Record(ctx, model.RecordFromOutcome(o, r.now())); err != nil {
		r.logger.Error("Failed to journal outcome", zap.Error(err))
	}
}

// Rejected logs a request that failed validation
func (r *Recorder) Rejected(label string, err error) {
	r.feed.Log(activity.KindError, label, err.Error(), nil)
	r.logger.Info("Request rejected", zap.String("label", label), zap.Error(err))
}

func successMessage(o model.Outcome) string {
	switch model.Action(o.Action) {
	case model.ActionCreate:
		return fmt.Sprintf("Token created by %s: %s", walletLabel(o), common.ShortenAddress(o.Mint))
	case model.ActionSell:
		return fmt.Sprintf("%s sold %s", walletLabel(o), o.Amount)
	default:
		return fmt.Sprintf("%s bought %s SOL", walletLabel(o), o.Amount)
	}
}

func walletLabel(o model.Outcome) string {
	if o.WalletName != "" {
		return o.WalletName
	}
	return o.WalletID
}
