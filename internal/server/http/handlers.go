package httpserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/helixir/scholar-rank-service/internal/domain"
	"github.com/helixir/scholar-rank-service/internal/export"
)

const (
	queryParam       = "query"
	spreadsheetParam = "spreadsheet"
	csvFilename      = "data.csv"
)

// getPapers handles GET /papers.
func (s *Server) getPapers(w http.ResponseWriter, r *http.Request) {
	query, ok := requireQuery(w, r)
	if !ok {
		return
	}

	result, err := s.service.Papers(r.Context(), query)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if wantsSpreadsheet(r) {
		s.writeCSV(w, r, func(out io.Writer) error {
			return export.WritePapers(out, result.Papers)
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Results: nonNil(result.Papers),
		Headers: result.RateLimit,
	})
}

// getPaperInfo handles GET /get_paper_info.
func (s *Server) getPaperInfo(w http.ResponseWriter, r *http.Request) {
	query, ok := requireQuery(w, r)
	if !ok {
		return
	}

	papers, rateLimit, err := s.service.PapersWithAuthors(r.Context(), query)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if wantsSpreadsheet(r) {
		s.writeCSV(w, r, func(out io.Writer) error {
			return export.WritePapersAuthors(out, papers)
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Results: nonNil(papers),
		Headers: rateLimit,
	})
}

// getAuthorInfo handles GET /get_author_info.
func (s *Server) getAuthorInfo(w http.ResponseWriter, r *http.Request) {
	query, ok := requireQuery(w, r)
	if !ok {
		return
	}

	authors, rateLimit, err := s.service.TopAuthors(r.Context(), query)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if wantsSpreadsheet(r) {
		s.writeCSV(w, r, func(out io.Writer) error {
			return export.WriteAuthors(out, authors)
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Results: nonNil(authors),
		Headers: rateLimit,
	})
}

// requireQuery returns the query parameter, writing a 400 response when it is
// missing or blank. The query itself is passed upstream unchanged.
func requireQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	query := r.URL.Query().Get(queryParam)
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, domain.NewValidationError(queryParam, "is required").Error())
		return "", false
	}
	return query, true
}

// wantsSpreadsheet reports whether CSV output was requested. Only the exact
// value "true" selects it.
func wantsSpreadsheet(r *http.Request) bool {
	return r.URL.Query().Get(spreadsheetParam) == "true"
}

// writeCSV renders into a buffer first so a rendering failure can still be
// reported with a proper status.
func (s *Server) writeCSV(w http.ResponseWriter, r *http.Request, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		log := s.requestLog(r)
		log.Error().Err(err).Msg("rendering spreadsheet failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+csvFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// writeDomainError maps domain errors to appropriate HTTP status codes.
// Internal error details are logged but never returned to the client.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLog(r)

	var validationErr *domain.ValidationError
	var upstreamErr *domain.UpstreamError
	var netErr net.Error

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, context.Canceled):
		log.Info().Err(err).Msg("request cancelled by client")
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		log.Error().Err(err).Msg("upstream request timed out")
		writeError(w, http.StatusGatewayTimeout, "upstream request timed out")
	case errors.As(err, &upstreamErr):
		log.Error().Err(err).
			Str("endpoint", upstreamErr.Endpoint).
			Int("upstream_status", upstreamErr.StatusCode).
			Msg("upstream request failed")
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, upstreamErrorResponse{
			Error:          upstreamErr.Error(),
			UpstreamStatus: upstreamErr.StatusCode,
		})
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
