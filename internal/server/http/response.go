package httpserver

import (
	"github.com/helixir/scholar-rank-service/internal/domain"
)

// envelope is the JSON body of every query endpoint.
type envelope struct {
	Results any                  `json:"results"`
	Headers domain.RateLimitInfo `json:"headers"`
}

// upstreamErrorResponse is the JSON body returned when the upstream API fails.
type upstreamErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// nonNil keeps empty result lists serialized as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
