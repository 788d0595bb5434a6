// Package observability provides logging, metrics, and context helpers for
// the scholar rank service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger.Info().Str("query", q).Msg("search started")
//
// Loggers travel with the request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithLogger(ctx, logger)
//	log := observability.ComponentLogger(ctx, logger, "insights")
//	log.Info().Msg("paper search completed")
//
// # Metrics
//
//	metrics := observability.NewMetrics("scholar_rank")
//	metrics.RecordUpstreamRequest("search", 200, 0.4)
//	metrics.RecordAuthorsRanked(12)
//
// # Standard Fields
//
//   - request_id: HTTP request identifier
//   - query: upstream search query
//   - source: upstream source name
//   - paper_title, authors_link: paper being enriched
//   - component: emitting component
//
// All components are safe for concurrent use from multiple goroutines.
package observability
