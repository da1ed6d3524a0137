package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/star/isstrack/internal/calc"
	"github.com/star/isstrack/internal/display"
	"github.com/star/isstrack/internal/series"
)

// maxFormBytes bounds calculator request bodies.
const maxFormBytes = 4 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type stateResponse struct {
	Fields    display.Fields  `json:"fields"`
	Clock     string          `json:"clock"`
	Series    series.Snapshot `json:"series"`
	UpdatedAt *int64          `json:"updated_at"`
	Ready     bool            `json:"ready"`
}

// GET /api/v1/state
func stateHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := stateResponse{
			Fields: deps.Board.Fields(),
			Clock:  deps.Clock.String(),
			Series: deps.Record.Snapshot(),
			Ready:  deps.Poller.Ready(),
		}
		if at := deps.Board.UpdatedAt(); !at.IsZero() {
			ms := at.UnixMilli()
			resp.UpdatedAt = &ms
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GET /api/v1/series
func seriesHandler(record *series.Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, record.Snapshot())
	}
}

// GET /api/v1/series/{metric} returns one metric as (t, v) samples.
func metricHandler(record *series.Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := record.Snapshot()
		switch r.PathValue("metric") {
		case "speed":
			writeJSON(w, http.StatusOK, snap.SpeedSamples())
		case "altitude":
			writeJSON(w, http.StatusOK, snap.AltitudeSamples())
		default:
			writeError(w, http.StatusNotFound, "unknown metric, want speed or altitude")
		}
	}
}

// GET /api/v1/clock
func clockHandler(clock *display.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"time": clock.String()})
	}
}

// GET /charts/{name}.svg
func svgHandler(latest func() []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(latest())
	}
}

// formValue is a calculator input. Browsers send strings; numbers are
// accepted too and used in their literal form.
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = formValue(n.String())
	return nil
}

type resultResponse struct {
	Result string `json:"result"`
}

func decodeForm(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

type distanceRequest struct {
	Lat formValue `json:"lat"`
	Lon formValue `json:"lon"`
}

// POST /api/v1/calc/distance uses the latest known satellite position.
func distanceHandler(board *display.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req distanceRequest
		if !decodeForm(w, r, &req) {
			return
		}
		pos, ok := board.Position()
		if !ok {
			writeError(w, http.StatusConflict, "satellite position not known yet")
			return
		}
		d := calc.DistanceFromStrings(string(req.Lat), string(req.Lon), pos.Latitude, pos.Longitude)
		writeJSON(w, http.StatusOK, positionResult{
			Result:     calc.FormatNumber(d),
			PositionAt: pos.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
}

type positionResult struct {
	Result     string `json:"result"`
	PositionAt string `json:"position_at"`
}

type powerRequest struct {
	Area       formValue `json:"area"`
	Efficiency formValue `json:"efficiency"`
	Irradiance formValue `json:"irradiance"`
}

// POST /api/v1/calc/power
func powerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req powerRequest
		if !decodeForm(w, r, &req) {
			return
		}
		p := calc.PowerFromStrings(string(req.Area), string(req.Efficiency), string(req.Irradiance))
		writeJSON(w, http.StatusOK, resultResponse{Result: calc.FormatNumber(p)})
	}
}
