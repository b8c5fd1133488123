package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"queuebot/controller"
	"queuebot/queue"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewManager(controller.NewController(queue.Options{})).Register(router)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	return out
}

const trackA = `{"encoded":"encA","info":{"title":"Song A","duration":60000}}`
const trackB = `{"encoded":"encB","info":{"title":"Song B","duration":60000}}`

func TestAddAndGetTracks(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/guilds/g1/queue/tracks",
		`{"tracks":[`+trackA+`,`+trackB+`]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["length"]; got != float64(2) {
		t.Errorf("length = %v, want 2", got)
	}

	w = do(t, router, http.MethodGet, "/guilds/g1/queue/tracks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	tracks := decode(t, w)["tracks"].([]any)
	if len(tracks) != 2 {
		t.Errorf("tracks = %d, want 2", len(tracks))
	}

	w = do(t, router, http.MethodGet, "/guilds/g1/queue/tracks/count", "")
	if got := decode(t, w)["count"]; got != float64(2) {
		t.Errorf("count = %v, want 2", got)
	}
}

func TestAddRejectsMissingTracks(t *testing.T) {
	router := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/guilds/g1/queue/tracks", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTracksRangeQuery(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/guilds/g1/queue/tracks",
		`{"tracks":[`+trackA+`,`+trackB+`]}`)

	w := do(t, router, http.MethodGet, "/guilds/g1/queue/tracks?start=1&end=2", "")
	tracks := decode(t, w)["tracks"].([]any)
	if len(tracks) != 1 {
		t.Fatalf("range tracks = %d, want 1", len(tracks))
	}
	info := tracks[0].(map[string]any)["info"].(map[string]any)
	if info["title"] != "Song B" {
		t.Errorf("range [1,2) = %v, want Song B", info["title"])
	}
}

func TestTracksRangeRejectsBadParams(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{
		"/guilds/g1/queue/tracks?start=abc&end=2",
		"/guilds/g1/queue/tracks?start=0&end=xyz",
	} {
		if w := do(t, router, http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, w.Code)
		}
	}
}

func TestRemoveTrackAt(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/guilds/g1/queue/tracks",
		`{"tracks":[`+trackA+`,`+trackB+`]}`)

	w := do(t, router, http.MethodDelete, "/guilds/g1/queue/tracks/0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	removed := decode(t, w)["removed"].([]any)
	if len(removed) != 1 || removed[0].(map[string]any)["encoded"] != "encA" {
		t.Errorf("removed = %v, want encA", removed)
	}

	// Index past the end is a 404, not an error
	w = do(t, router, http.MethodDelete, "/guilds/g1/queue/tracks/5", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/guilds/g1/queue/tracks/notanumber", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRemoveMixed(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/guilds/g1/queue/tracks",
		`{"tracks":[`+trackA+`,`+trackB+`]}`)

	w := do(t, router, http.MethodPost, "/guilds/g1/queue/remove",
		`{"tracks":[{"encoded":"encB"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	indices := decode(t, w)["indices"].([]any)
	if len(indices) != 1 || indices[0] != float64(1) {
		t.Errorf("indices = %v, want [1]", indices)
	}

	w = do(t, router, http.MethodPost, "/guilds/g1/queue/remove",
		`{"tracks":[{"encoded":"missing"}]}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("no-match status = %d, want 404", w.Code)
	}
}

func TestSpliceEndpoint(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/guilds/g1/queue/tracks",
		`{"tracks":[`+trackA+`,`+trackB+`]}`)

	w := do(t, router, http.MethodPost, "/guilds/g1/queue/splice",
		`{"index":0,"amount":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	removed := decode(t, w)["removed"].([]any)
	if len(removed) != 1 || removed[0].(map[string]any)["encoded"] != "encA" {
		t.Errorf("removed = %v, want encA", removed)
	}
}

func TestShuffleEndpoint(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/guilds/g1/queue/tracks",
		`{"tracks":[`+trackA+`,`+trackB+`]}`)

	w := do(t, router, http.MethodPost, "/guilds/g1/queue/shuffle", "")
	if got := decode(t, w)["length"]; got != float64(2) {
		t.Errorf("length = %v, want 2", got)
	}
}

func TestQueueSnapshotAndDestroy(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/guilds/g1/queue/tracks", `{"tracks":[`+trackA+`]}`)

	w := do(t, router, http.MethodGet, "/guilds/g1/queue", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	snap := decode(t, w)
	if len(snap["tracks"].([]any)) != 1 {
		t.Errorf("snapshot tracks = %v, want 1 entry", snap["tracks"])
	}

	w = do(t, router, http.MethodDelete, "/guilds/g1/queue", "")
	if w.Code != http.StatusOK {
		t.Fatalf("destroy status = %d", w.Code)
	}

	// A destroyed guild has nothing to sync
	w = do(t, router, http.MethodPost, "/guilds/g1/queue/sync", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("sync status = %d, want 404", w.Code)
	}
}

func TestDurationEndpoint(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/guilds/g1/queue/tracks",
		`{"tracks":[`+trackA+`,`+trackB+`]}`)

	w := do(t, router, http.MethodGet, "/guilds/g1/queue/duration", "")
	if got := decode(t, w)["durationMs"]; got != float64(120000) {
		t.Errorf("durationMs = %v, want 120000", got)
	}
}

func TestPreviousEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/guilds/g1/queue/previous",
		`{"track":`+trackA+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add previous status = %d, body %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/guilds/g1/queue/previous", "")
	if got := decode(t, w)["tracks"].([]any); len(got) != 1 {
		t.Errorf("previous = %v, want 1 entry", got)
	}

	w = do(t, router, http.MethodPost, "/guilds/g1/queue/previous/shift", "")
	track := decode(t, w)["track"].(map[string]any)
	if track["encoded"] != "encA" {
		t.Errorf("shifted = %v, want encA", track)
	}

	// Empty list shifts to null
	w = do(t, router, http.MethodPost, "/guilds/g1/queue/previous/shift", "")
	if decode(t, w)["track"] != nil {
		t.Error("shift on empty previous should return null")
	}
}

func TestPlayerEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/guilds/g1/player", "")
	state := decode(t, w)
	if state["volume"] != float64(100) || state["repeat"] != "off" {
		t.Errorf("initial player state = %v", state)
	}

	w = do(t, router, http.MethodPost, "/guilds/g1/player/volume", `{"volume":500}`)
	if got := decode(t, w)["volume"]; got != float64(150) {
		t.Errorf("clamped volume = %v, want 150", got)
	}

	do(t, router, http.MethodPost, "/guilds/g1/player/pause", `{"paused":true}`)
	do(t, router, http.MethodPost, "/guilds/g1/player/repeat", `{"mode":"queue"}`)
	do(t, router, http.MethodPost, "/guilds/g1/player/seek", `{"positionMs":4500}`)

	w = do(t, router, http.MethodGet, "/guilds/g1/player", "")
	state = decode(t, w)
	if state["paused"] != true || state["repeat"] != "queue" || state["positionMs"] != float64(4500) {
		t.Errorf("player state = %v", state)
	}
}

func TestGuildsAreIsolated(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/guilds/g1/queue/tracks", `{"tracks":[`+trackA+`]}`)

	w := do(t, router, http.MethodGet, "/guilds/g2/queue/tracks/count", "")
	if got := decode(t, w)["count"]; got != float64(0) {
		t.Errorf("other guild count = %v, want 0", got)
	}
}
