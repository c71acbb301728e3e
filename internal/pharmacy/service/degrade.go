package service

import (
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// degrade swaps a PersistenceUnavailable error for fallback so read views keep
// rendering while the schema is missing or the database is down. Any other
// error is returned unchanged.
func degrade[T any](log *logger.Logger, query string, v T, err error, fallback T) (T, error) {
	if err == nil {
		return v, nil
	}
	if errors.IsUnavailable(err) {
		log.Warn().Err(err).Str("query", query).Msg("persistence unavailable, returning empty result")
		return fallback, nil
	}
	return v, err
}
