package sheets

import (
	"context"
	"errors"
	"time"

	"cubedraft/internal/constants"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// Retrying wraps a RowAPI with exponential backoff on transient failures.
// Bad-request errors are never retried and propagate immediately.
type Retrying struct {
	inner      RowAPI
	logger     zerolog.Logger
	backoff    time.Duration
	maxRetries uint64
}

func NewRetrying(inner RowAPI, logger zerolog.Logger) *Retrying {
	return &Retrying{
		inner:      inner,
		logger:     logger,
		backoff:    constants.SheetsRetryBackoff,
		maxRetries: constants.SheetsMaxRetries,
	}
}

func (r *Retrying) Read(ctx context.Context, spreadsheetID, readRange string, mode RenderMode) ([][]string, error) {
	var rows [][]string
	err := r.withRetry(ctx, "read", readRange, func(ctx context.Context) error {
		var err error
		rows, err = r.inner.Read(ctx, spreadsheetID, readRange, mode)
		return err
	})
	return rows, err
}

func (r *Retrying) Append(ctx context.Context, spreadsheetID, writeRange string, values [][]string) error {
	return r.withRetry(ctx, "append", writeRange, func(ctx context.Context) error {
		return r.inner.Append(ctx, spreadsheetID, writeRange, values)
	})
}

func (r *Retrying) Overwrite(ctx context.Context, spreadsheetID, writeRange string, values [][]string) error {
	return r.withRetry(ctx, "overwrite", writeRange, func(ctx context.Context) error {
		return r.inner.Overwrite(ctx, spreadsheetID, writeRange, values)
	})
}

func (r *Retrying) withRetry(ctx context.Context, op, rng string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.backoff))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrBadRequest) {
			return err
		}
		r.logger.Warn().
			Err(err).
			Str("op", op).
			Str("range", rng).
			Int("attempt", attempt).
			Msg("row store call failed, retrying")
		return retry.RetryableError(err)
	})
}
