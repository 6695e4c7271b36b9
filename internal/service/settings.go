package service

import (
	"context"
	"sync"

	"bistro-checkout/internal/metrics"
	"bistro-checkout/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// resolveSettings reads the live settings concurrently. Each value that
// cannot be fetched, or is out of range, keeps its value from defaults.
func resolveSettings(ctx context.Context, remote Remote, defaults pricing.Settings, m *metrics.CheckoutMetrics, logger zerolog.Logger) (pricing.Settings, bool) {
	type result struct {
		value decimal.Decimal
		err   error
	}

	var (
		wg                   sync.WaitGroup
		fee, redemption, earn result
	)
	wg.Go(func() { fee.value, fee.err = remote.FetchDeliveryFee(ctx) })
	wg.Go(func() { redemption.value, redemption.err = remote.FetchRedemptionRate(ctx) })
	wg.Go(func() { earn.value, earn.err = remote.FetchEarnRate(ctx) })
	wg.Wait()

	settings := defaults
	degraded := false

	if fee.err == nil && !fee.value.IsNegative() {
		settings.DeliveryFee = fee.value
	} else {
		degraded = true
		logger.Warn().Err(fee.err).Str("setting", "delivery_fee").Msg("using default setting")
	}

	if redemption.err == nil && redemption.value.IsPositive() {
		settings.RedemptionRate = redemption.value
	} else {
		degraded = true
		logger.Warn().Err(redemption.err).Str("setting", "redemption_rate").Msg("using default setting")
	}

	if earn.err == nil && earn.value.IsPositive() {
		settings.EarnRate = earn.value
	} else {
		degraded = true
		logger.Warn().Err(earn.err).Str("setting", "earn_rate").Msg("using default setting")
	}

	if degraded {
		m.IncDegradedFetch("settings")
	}
	return settings, degraded
}
