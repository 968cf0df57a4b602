package elevd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func serve(t *testing.T, d *WebDaemon, method, target string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	d.NewRouter().ServeHTTP(w, req)
	resp := w.Result()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestWebDaemon_ping(t *testing.T) {
	req := httptest.NewRequest("GET", "http://elevd.local/ping", nil)
	w := httptest.NewRecorder()
	pingPong(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Fatalf("status code not 200")
	}
	if string(body) != "pong" {
		t.Errorf("body is not pong: %s", string(body))
	}
}

func TestWebDaemon_statusReport(t *testing.T) {
	d, _ := newTestWebDaemon()
	resp, body := serve(t, d, "GET", "http://elevd.local/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	status := webDaemonStatus{}
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatal(err)
	}
	if status.Uptime == "" {
		t.Error("uptime is empty")
	}
	if status.Service.Tiles != 2 {
		t.Errorf("expected 2 tiles, got %d", status.Service.Tiles)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestWebDaemon_elevation(t *testing.T) {
	d, _ := newTestWebDaemon()
	resp, body := serve(t, d, "GET", "http://elevd.local/elevation?lat=5&lng=5", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %s", ct)
	}
	res := gjson.ParseBytes(body)
	if !res.Get("hasData").Bool() || res.Get("elevation").Int() != 111 || res.Get("tileId").String() != "a" {
		t.Errorf("unexpected sample %s", body)
	}

	_, body = serve(t, d, "GET", "http://elevd.local/elevation?lat=50&lng=50", nil)
	res = gjson.ParseBytes(body)
	if res.Get("hasData").Bool() || res.Get("elevation").Type != gjson.Null || res.Get("tileId").Type != gjson.Null {
		t.Errorf("expected no data, got %s", body)
	}

	resp, _ = serve(t, d, "GET", "http://elevd.local/elevation?lat=x&lng=5", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad lat, got %d", resp.StatusCode)
	}
	resp, _ = serve(t, d, "GET", "http://elevd.local/elevation?lat=5", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing lng, got %d", resp.StatusCode)
	}
}

func TestWebDaemon_contours(t *testing.T) {
	d, src := newTestWebDaemon()
	target := "http://elevd.local/contours?south=1&north=9&west=1&east=19&step=5"
	resp, body := serve(t, d, "GET", target, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	res := gjson.ParseBytes(body)
	if res.Get("type").String() != "FeatureCollection" {
		t.Errorf("expected a FeatureCollection, got %s", res.Get("type"))
	}
	if got := res.Get("tiles").String(); got != `["a","b"]` {
		t.Errorf("unexpected tiles %s", got)
	}
	features := res.Get("features").Array()
	if len(features) == 0 {
		t.Fatal("expected features")
	}
	for _, f := range features {
		if f.Get("geometry.type").String() != "MultiLineString" {
			t.Errorf("unexpected geometry %s", f.Get("geometry.type"))
		}
		if f.Get("properties.spacing").Float() != 5 {
			t.Errorf("unexpected spacing %s", f.Get("properties.spacing"))
		}
		if id := f.Get("properties.tileId").String(); id != "a" && id != "b" {
			t.Errorf("unexpected tile id %s", id)
		}
	}

	// Served from cache the second time.
	_, again := serve(t, d, "GET", target, nil)
	if !bytes.Equal(body, again) {
		t.Errorf("expected identical responses")
	}
	if src.Opens("a") != 1 || src.Opens("b") != 1 {
		t.Errorf("expected one load per tile, got a=%d b=%d", src.Opens("a"), src.Opens("b"))
	}
}

func TestWebDaemon_contoursInvalidBounds(t *testing.T) {
	d, _ := newTestWebDaemon()
	resp, body := serve(t, d, "GET", "http://elevd.local/contours?south=1&north=9", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	res := gjson.ParseBytes(body)
	if len(res.Get("features").Array()) != 0 || !res.Get("features").IsArray() {
		t.Errorf("expected an empty feature list, got %s", body)
	}
	resp, _ = serve(t, d, "GET", "http://elevd.local/contours?south=1&north=9&west=1&east=9&max=lots", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad settings, got %d", resp.StatusCode)
	}
}

func TestWebDaemon_regionContours(t *testing.T) {
	d, _ := newTestWebDaemon()
	body := `{"vertices":[{"lat":1,"lng":1},{"lat":1,"lng":9},{"lat":9,"lng":5},{"lat":1,"lng":1}],"settings":{"thresholdStep":2}}`
	resp, data := serve(t, d, "POST", "http://elevd.local/contours/region", strings.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, data)
	}
	res := gjson.ParseBytes(data)
	if len(res.Get("features").Array()) == 0 {
		t.Errorf("expected clipped features, got %s", data)
	}
	res.Get("features.#.geometry.coordinates").ForEach(func(_, lines gjson.Result) bool {
		lines.ForEach(func(_, line gjson.Result) bool {
			if len(line.Array()) < 2 {
				t.Errorf("segment with fewer than 2 points: %s", line.Raw)
			}
			return true
		})
		return true
	})

	bad := `{"vertices":[{"lat":1,"lng":1},{"lat":2,"lng":2}]}`
	resp, _ = serve(t, d, "POST", "http://elevd.local/contours/region", strings.NewReader(bad))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for a 2-vertex polygon, got %d", resp.StatusCode)
	}
	resp, _ = serve(t, d, "POST", "http://elevd.local/contours/region", strings.NewReader(`{"vertices":`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed json, got %d", resp.StatusCode)
	}
}

func TestWebDaemon_tileContours(t *testing.T) {
	d, _ := newTestWebDaemon()
	resp, data := serve(t, d, "GET", "http://elevd.local/tiles/b/contours", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, data)
	}
	if got := gjson.GetBytes(data, "tiles").String(); got != `["b"]` {
		t.Errorf("unexpected tiles %s", got)
	}
	resp, _ = serve(t, d, "GET", "http://elevd.local/tiles/zzz/contours", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWebDaemon_clearCaches(t *testing.T) {
	d, src := newTestWebDaemon()
	serve(t, d, "GET", "http://elevd.local/elevation?lat=5&lng=5", nil)
	resp, data := serve(t, d, "POST", "http://elevd.local/caches/clear", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if gjson.GetBytes(data, "cachedTiles").Int() != 0 {
		t.Errorf("expected no cached tiles, got %s", data)
	}
	serve(t, d, "GET", "http://elevd.local/elevation?lat=5&lng=5", nil)
	if src.Opens("a") != 2 {
		t.Errorf("expected a reload after clearing, got %d", src.Opens("a"))
	}
}

func TestWebDaemon_StartInterrupt(t *testing.T) {
	d, _ := newTestWebDaemon()
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + d.Addr().String() + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("unexpected body %q", body)
	}
	d.Interrupt()
	d.Wait()
	if _, err := http.Get("http://" + d.Addr().String() + "/ping"); err == nil {
		t.Errorf("expected the server to be stopped")
	}
}
