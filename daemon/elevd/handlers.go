package elevd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotblauer/elevd/clip"
	"github.com/rotblauer/elevd/service"
	"github.com/rotblauer/elevd/types/contour"
	"github.com/tidwall/gjson"
)

// maxBodyBytes caps region request bodies.
const maxBodyBytes = 1 << 20

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time     `json:"started_at"`
	Uptime    string        `json:"uptime"`
	Listen    string        `json:"listen"`
	Service   service.Stats `json:"service"`
}

func (d *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: d.started,
		Uptime:    time.Since(d.started).Round(time.Second).String(),
		Listen:    d.Config.ListenerConfig.String(),
		Service:   d.service.Stats(),
	}
	d.writeJSON(w, st)
}

func (d *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	j, err := json.Marshal(v)
	if err != nil {
		d.logger.Error("Failed to marshal response", "error", err)
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(j); err != nil {
		d.logger.Warn("Failed to write response", "error", err)
	}
}

// queryFloat parses a float query parameter. A missing parameter is not ok
// but not an error either.
func queryFloat(q url.Values, key string) (v float64, ok bool, err error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad %s: %w", key, err)
	}
	return v, true, nil
}

// settingsFromQuery reads step, sample and max. Absent values stay zero
// and take the service defaults.
func settingsFromQuery(q url.Values) (contour.Settings, error) {
	s := contour.Settings{}
	if v, ok, err := queryFloat(q, "step"); err != nil {
		return s, err
	} else if ok {
		s.ThresholdStep = v
	}
	for key, dst := range map[string]*int{"sample": &s.SampleSize, "max": &s.MaxContours} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return s, fmt.Errorf("bad %s: %w", key, err)
		}
		*dst = n
	}
	return s, nil
}

func (d *WebDaemon) handleElevation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, okLat, err := queryFloat(q, "lat")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lng, okLng, err := queryFloat(q, "lng")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !okLat || !okLng {
		http.Error(w, "Missing lat or lng", http.StatusBadRequest)
		return
	}
	d.writeJSON(w, d.service.GetElevation(r.Context(), lat, lng))
}

var boundsQueryKeys = []string{
	"minLat", "maxLat", "minLng", "maxLng",
	"south", "north", "west", "east",
	"minLatitude", "maxLatitude", "minLongitude", "maxLongitude",
}

// handleContours returns the contours of every tile intersecting the query box.
// Bounds that do not resolve give an empty FeatureCollection.
func (d *WebDaemon) handleContours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	box := map[string]any{}
	for _, key := range boundsQueryKeys {
		v, ok, err := queryFloat(q, key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if ok {
			box[key] = v
		}
	}
	settings, err := settingsFromQuery(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d.writeJSON(w, d.service.GetContoursForBounds(r.Context(), box, settings))
}

// handleRegionContours clips contours to a posted polygon:
// {"vertices": [{lat,lng}...], "settings": {thresholdStep, sampleSize, maxContours}}.
func (d *WebDaemon) handleRegionContours(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if !gjson.ValidBytes(body) {
		http.Error(w, "Malformed JSON", http.StatusBadRequest)
		return
	}
	vertices, err := clip.VerticesFromGJSON(gjson.GetBytes(body, "vertices"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	settings := contour.Settings{}
	if raw := gjson.GetBytes(body, "settings"); raw.IsObject() {
		if err := json.Unmarshal([]byte(raw.Raw), &settings); err != nil {
			http.Error(w, "Bad settings: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	fc, err := d.service.GetContoursForRegion(r.Context(), vertices, settings)
	if errors.Is(err, clip.ErrInsufficientPolygon) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d.writeJSON(w, fc)
}

func (d *WebDaemon) handleTileContours(w http.ResponseWriter, r *http.Request) {
	settings, err := settingsFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := mux.Vars(r)["tile"]
	features, err := d.service.GetTileContoursByID(r.Context(), id, settings)
	if errors.Is(err, service.ErrTileNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		d.logger.Warn("Tile contours failed", "tile", id, "error", err)
		http.Error(w, "Failed to contour tile", http.StatusBadGateway)
		return
	}
	d.writeJSON(w, contour.Collection{Features: features, Tiles: []string{id}})
}

func (d *WebDaemon) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	d.service.ClearCaches()
	d.writeJSON(w, d.service.Stats())
}
