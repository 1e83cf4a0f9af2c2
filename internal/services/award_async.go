// file: internal/services/award_async.go
package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const asyncAwardTimeout = 30 * time.Second

// AwardPointsAsync awards points in the background so the caller's primary
// action (posting a comment, enrolling in a course) never blocks or fails on
// gamification. Transient failures are retried with exponential backoff;
// validation failures are terminal and only logged.
func (s *gamificationService) AwardPointsAsync(req *AwardPointsRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncAwardTimeout)
		defer cancel()

		operation := func() error {
			_, err := s.AwardPoints(ctx, req)
			if err == nil {
				return nil
			}
			if IsValidationError(err) || IsNotFoundError(err) {
				// Retrying will not change the outcome.
				return backoff.Permanent(err)
			}
			return err
		}

		policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
		if err := backoff.Retry(operation, policy); err != nil {
			s.logger.Error("async point award failed",
				zap.Int64("user_id", req.UserID),
				zap.String("event_type", req.EventType),
				zap.Error(err),
			)
		}
	}()
}
