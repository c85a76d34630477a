package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/marcus/quotes/internal/kv"
	"github.com/marcus/quotes/internal/quotes"
)

// PutResponse is the body returned by a successful PUT /v1/quotes.
type PutResponse struct {
	Records int `json:"records"`
}

// handleGetQuotes serves the stored snapshot bytes unchanged.
func (s *Server) handleGetQuotes(w http.ResponseWriter, r *http.Request) {
	data, ok, err := s.store.Get(kv.ServerKey)
	if err != nil {
		logFor(r.Context()).Error("read snapshot", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to read snapshot")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no snapshot stored")
		return
	}
	s.metrics.RecordFetch()
	writeRaw(w, http.StatusOK, data)
}

// handlePutQuotes replaces the snapshot. The body must be a JSON array of
// records; it is stored in canonical encoding. "If-None-Match: *" makes the
// write conditional on no snapshot existing.
func (s *Server) handlePutQuotes(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "failed to read body")
		return
	}

	c, err := quotes.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON array of quotes")
		return
	}
	data, err := quotes.Encode(c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to encode snapshot")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if r.Header.Get("If-None-Match") == "*" {
		_, exists, err := s.store.Get(kv.ServerKey)
		if err != nil {
			logFor(r.Context()).Error("read snapshot", "err", err)
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to read snapshot")
			return
		}
		if exists {
			writeError(w, http.StatusPreconditionFailed, ErrCodeAlreadyExists, "snapshot already exists")
			return
		}
	}

	if err := s.store.Set(kv.ServerKey, data); err != nil {
		logFor(r.Context()).Error("write snapshot", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to write snapshot")
		return
	}
	s.metrics.RecordPush(len(c))
	logFor(r.Context()).Info("snapshot replaced", "records", len(c))
	writeJSON(w, http.StatusOK, PutResponse{Records: len(c)})
}
