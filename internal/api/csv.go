package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/star/isstrack/internal/csvview"
)

// POST /api/v1/csv accepts a multipart "file" field or a raw body and
// returns an HTML table, or {"rows": [...]} with ?format=json.
func csvHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, csvview.MaxInputBytes+1<<20)

		src, closeFn, err := csvSource(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer closeFn()

		rows, err := csvview.Parse(src)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.Is(err, csvview.ErrTooLarge) || errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "file too large")
				return
			}
			logger.Debug("csv parse failed", "component", "api", "error", err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		if r.URL.Query().Get("format") == "json" {
			if rows == nil {
				rows = [][]string{}
			}
			writeJSON(w, http.StatusOK, map[string][][]string{"rows": rows})
			return
		}

		var buf bytes.Buffer
		if err := csvview.RenderHTML(&buf, rows); err != nil {
			writeError(w, http.StatusInternalServerError, "rendering table failed")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

// csvSource returns the uploaded file for multipart requests and the body otherwise.
func csvSource(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, errors.New("invalid multipart body")
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, nil, errors.New(`missing "file" field`)
		}
		if err != nil {
			return nil, nil, errors.New("invalid multipart body")
		}
		if part.FormName() == "file" {
			return part, func() { part.Close() }, nil
		}
		part.Close()
	}
}
