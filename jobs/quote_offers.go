package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/jobdiary/jobdiary/internal/diary"
	jobmetrics "github.com/jobdiary/jobdiary/internal/jobs"
)

const defaultOfferBatch = 100

// QuoteSource lists aged quotes and records offers.
type QuoteSource interface {
	QuotesDueOffer(ctx context.Context, afterDays, limit int) ([]diary.AgedQuote, error)
	MarkQuoteOffered(ctx context.Context, id int64) error
}

// OfferSender delivers a discount offer.
type OfferSender interface {
	SendQuoteDiscountOffer(ctx context.Context, jobID int64, channel string) (bool, error)
}

// QuoteOfferJob handles TaskQuoteOfferScan.
type QuoteOfferJob struct {
	Settings SettingsSource
	Quotes   QuoteSource
	Sender   OfferSender
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle sends one offer per aged quote. Every quote attempted is marked
// offered, delivered or not, so nobody receives the offer twice.
func (j *QuoteOfferJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload QuoteOfferScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultOfferBatch
	}
	tracker := j.Metrics.Track("quote_offer_scan")
	defer func() { err = tracker.End(err) }()

	cfg, err := j.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("quote offers: load settings: %w", err)
	}
	offer := cfg.Notifications.QuoteDiscount
	if !offer.Enabled {
		return nil
	}
	quotes, err := j.Quotes.QuotesDueOffer(ctx, offer.AfterDays, payload.Limit)
	if err != nil {
		return fmt.Errorf("quote offers: list: %w", err)
	}

	logger := j.logger()
	var sent, failed int
	for _, q := range quotes {
		ok, sendErr := j.Sender.SendQuoteDiscountOffer(ctx, q.ID, offer.Channel)
		switch {
		case sendErr != nil:
			failed++
			logger.Warn("quote offer failed", slog.Int64("job_id", q.ID), slog.Any("error", sendErr))
		case !ok:
			failed++
			logger.Info("quote offer not delivered", slog.Int64("job_id", q.ID))
		default:
			sent++
		}
		if err := j.Quotes.MarkQuoteOffered(ctx, q.ID); err != nil {
			return fmt.Errorf("quote offers: mark %d: %w", q.ID, err)
		}
	}
	j.Metrics.AddItems("quote_offer_scan", "sent", sent)
	j.Metrics.AddItems("quote_offer_scan", "failed", failed)
	logger.Info("quote offer scan finished", slog.Int("quotes", len(quotes)), slog.Int("sent", sent), slog.Int("failed", failed))
	return nil
}

func (j *QuoteOfferJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
