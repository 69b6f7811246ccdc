package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ogulcanaydogan/callbill/pkg/alerts"
	"github.com/ogulcanaydogan/callbill/pkg/ingest"
	"github.com/ogulcanaydogan/callbill/pkg/report"
	"github.com/ogulcanaydogan/callbill/pkg/segment"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

// errBadRequest marks client errors that carry no domain error kind.
var errBadRequest = errors.New("bad request")

// handleBill bills an uploaded call detail file. The file is taken from the
// multipart field "file", or from the raw request body otherwise.
func (s *Server) handleBill(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	q := r.URL.Query()

	format, err := report.ParseFormat(q.Get("format"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if format != report.FormatCSV {
		format = report.FormatJSON
	}

	override, err := overrideFromQuery(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := tariff.Resolve(s.plans, s.engine.Tariff(), q.Get("plan"), override)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	engine := s.engine
	if t != engine.Tariff() {
		if engine, err = engine.WithTariff(t); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)
	body, closeBody, err := uploadedFile(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeBody()

	opts := s.opts.Ingest
	if layout := q.Get("layout"); layout != "" {
		opts.Layout = ingest.ResolveLayout(layout)
	}

	calls, err := ingest.Read(body, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	bill, err := engine.Run(ctx, calls)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if len(s.opts.Notifiers) > 0 {
		alerts.Dispatch(ctx, s.opts.Notifiers, alerts.SummaryAlert(bill.Summary), s.logger)
	}

	w.Header().Set("X-Run-ID", bill.Summary.RunID)
	if format == report.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		if err := report.WriteCSV(w, bill); err != nil {
			s.logger.Error("write csv response", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report.NewDocument(bill))
}

func uploadedFile(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: read multipart field \"file\": %v", errBadRequest, err)
	}
	return f, func() { f.Close() }, nil
}

// overrideFromQuery reads per-request tariff overrides.
func overrideFromQuery(q url.Values) (tariff.Override, error) {
	var o tariff.Override

	if v := q.Get("main_start"); v != "" {
		o.MainWindowStart = &v
	}
	if v := q.Get("main_end"); v != "" {
		o.MainWindowEnd = &v
	}

	floats := []struct {
		key string
		dst **float64
	}{
		{"main_rate", &o.MainRate},
		{"other_rate", &o.OtherRate},
		{"bonus_threshold", &o.BonusThresholdMinutes},
		{"bonus_rate", &o.BonusRate},
	}
	for _, f := range floats {
		raw := q.Get(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return tariff.Override{}, &tariff.ConfigError{Field: f.key, Value: raw, Reason: "not a number"}
		}
		*f.dst = &v
	}

	return o, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, tariff.ErrPlanNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ingest.ErrParse),
		errors.Is(err, segment.ErrInvalidInterval),
		errors.Is(err, tariff.ErrInvalidConfig),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("handle request", "path", r.URL.Path, "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
