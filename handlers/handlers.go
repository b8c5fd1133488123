package handlers

// handlers expose the per-guild queue over HTTP. They parse the request,
// run the queue operation and report the result; all queue semantics
// live in the queue package.

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"queuebot/controller"
	"queuebot/models"
	"queuebot/queue"
	"queuebot/sentry"
)

type Manager struct {
	Controller *controller.Controller
}

func NewManager(ctrl *controller.Controller) *Manager {
	return &Manager{Controller: ctrl}
}

// Register mounts every queue and player route on the router.
func (m *Manager) Register(router *gin.Engine) {
	g := router.Group("/guilds/:guildId")

	g.GET("/queue", m.getQueue)
	g.DELETE("/queue", m.destroyQueue)
	g.POST("/queue/sync", m.syncQueue)
	g.GET("/queue/duration", m.getDuration)

	g.GET("/queue/tracks", m.getTracks)
	g.POST("/queue/tracks", m.addTracks)
	g.PUT("/queue/tracks", m.setTracks)
	g.DELETE("/queue/tracks", m.clearTracks)
	g.GET("/queue/tracks/count", m.getTrackCount)
	g.PUT("/queue/tracks/:index", m.replaceTrack)
	g.DELETE("/queue/tracks/:index", m.removeTrackAt)

	g.POST("/queue/shuffle", m.shuffle)
	g.POST("/queue/move", m.moveTrack)
	g.POST("/queue/swap", m.swapTracks)
	g.POST("/queue/splice", m.splice)
	g.POST("/queue/remove", m.removeTracks)

	g.GET("/queue/previous", m.getPrevious)
	g.POST("/queue/previous", m.addToPrevious)
	g.POST("/queue/previous/shift", m.shiftPrevious)

	g.GET("/player", m.getPlayer)
	g.POST("/player/volume", m.setVolume)
	g.POST("/player/pause", m.setPaused)
	g.POST("/player/repeat", m.setRepeat)
	g.POST("/player/seek", m.seek)
}

func (m *Manager) session(c *gin.Context) *controller.GuildSession {
	return m.Controller.GetSession(c.Param("guildId"))
}

func storeError(c *gin.Context, err error) {
	sentry.ReportError(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (m *Manager) getQueue(c *gin.Context) {
	snap, err := m.session(c).Queue.Snapshot(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (m *Manager) destroyQueue(c *gin.Context) {
	session := m.session(c)
	if err := session.Queue.Destroy(c.Request.Context()); err != nil {
		storeError(c, err)
		return
	}
	m.Controller.Drop(session.GuildID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *Manager) syncQueue(c *gin.Context) {
	err := m.session(c).Queue.Sync(c.Request.Context(), true, true)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *Manager) getDuration(c *gin.Context) {
	d, err := m.session(c).Queue.TotalDuration(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"durationMs": d.Milliseconds()})
}

func (m *Manager) getTracks(c *gin.Context) {
	q := m.session(c).Queue
	ctx := c.Request.Context()

	startStr, endStr := c.Query("start"), c.Query("end")
	if startStr != "" || endStr != "" {
		start, end, err := parseRange(startStr, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tracks, err := q.TracksRange(ctx, start, end)
		if err != nil {
			storeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tracks": tracks})
		return
	}

	tracks, err := q.Tracks(ctx)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// parseRange validates the start/end query params; an omitted param
// defaults to zero.
func parseRange(startStr, endStr string) (int, int, error) {
	var start, end int
	var err error
	if startStr != "" {
		if start, err = strconv.Atoi(startStr); err != nil {
			return 0, 0, fmt.Errorf("invalid start %q", startStr)
		}
	}
	if endStr != "" {
		if end, err = strconv.Atoi(endStr); err != nil {
			return 0, 0, fmt.Errorf("invalid end %q", endStr)
		}
	}
	return start, end, nil
}

type addTracksRequest struct {
	Tracks []*models.Track `json:"tracks" binding:"required"`
	Index  *int            `json:"index"`
}

func (m *Manager) addTracks(c *gin.Context) {
	var req addTracksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	length, err := m.session(c).Queue.Add(c.Request.Context(), index, req.Tracks...)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"length": length})
}

type setTracksRequest struct {
	Tracks []*models.Track `json:"tracks"`
}

func (m *Manager) setTracks(c *gin.Context) {
	var req setTracksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := m.session(c).Queue.SetTracks(c.Request.Context(), req.Tracks); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *Manager) clearTracks(c *gin.Context) {
	if err := m.session(c).Queue.ClearTracks(c.Request.Context()); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *Manager) getTrackCount(c *gin.Context) {
	count, err := m.session(c).Queue.TrackCount(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

type replaceTrackRequest struct {
	Track *models.Track `json:"track" binding:"required"`
}

func (m *Manager) replaceTrack(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	var req replaceTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := m.session(c).Queue.ReplaceTrack(c.Request.Context(), index, req.Track)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replaced": ok})
}

func (m *Manager) removeTrackAt(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	result, err := m.session(c).Queue.Remove(c.Request.Context(), index)
	if err != nil {
		storeError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no track at index"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": result.Removed, "indices": result.Indices})
}

func (m *Manager) shuffle(c *gin.Context) {
	length, err := m.session(c).Queue.Shuffle(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"length": length})
}

type moveTrackRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (m *Manager) moveTrack(c *gin.Context) {
	var req moveTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := m.session(c).Queue.MoveTrack(c.Request.Context(), req.From, req.To); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type swapTracksRequest struct {
	First  int `json:"first"`
	Second int `json:"second"`
}

func (m *Manager) swapTracks(c *gin.Context) {
	var req swapTracksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, err := m.session(c).Queue.SwapTracks(c.Request.Context(), req.First, req.Second)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"swapped": ok})
}

type spliceRequest struct {
	Index  int             `json:"index"`
	Amount int             `json:"amount"`
	Tracks []*models.Track `json:"tracks"`
}

func (m *Manager) splice(c *gin.Context) {
	var req spliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	removed, err := m.session(c).Queue.Splice(c.Request.Context(), req.Index, req.Amount, req.Tracks...)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

type removeTracksRequest struct {
	Indices []int           `json:"indices"`
	Tracks  []*models.Track `json:"tracks"`
}

func (m *Manager) removeTracks(c *gin.Context) {
	var req removeTracksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Mixed queries resolve indices and structural matches in one pass.
	query := make([]any, 0, len(req.Indices)+len(req.Tracks))
	for _, i := range req.Indices {
		query = append(query, i)
	}
	for _, t := range req.Tracks {
		query = append(query, t)
	}

	result, err := m.session(c).Queue.Remove(c.Request.Context(), query)
	if err != nil {
		storeError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing matched"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": result.Removed, "indices": result.Indices})
}

func (m *Manager) getPrevious(c *gin.Context) {
	tracks, err := m.session(c).Queue.PreviousTracks(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

type addToPreviousRequest struct {
	Track *models.Track `json:"track" binding:"required"`
}

func (m *Manager) addToPrevious(c *gin.Context) {
	var req addToPreviousRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := m.session(c).Queue.AddToPrevious(c.Request.Context(), req.Track); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *Manager) shiftPrevious(c *gin.Context) {
	track, err := m.session(c).Queue.ShiftPrevious(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"track": track})
}

func (m *Manager) getPlayer(c *gin.Context) {
	c.JSON(http.StatusOK, m.session(c).State())
}

type volumeRequest struct {
	Volume int `json:"volume"`
}

func (m *Manager) setVolume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	applied := m.session(c).SetVolume(c.Request.Context(), req.Volume)
	c.JSON(http.StatusOK, gin.H{"volume": applied})
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

func (m *Manager) setPaused(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m.session(c).SetPaused(c.Request.Context(), req.Paused)
	c.JSON(http.StatusOK, gin.H{"paused": req.Paused})
}

type repeatRequest struct {
	Mode string `json:"mode"`
}

func (m *Manager) setRepeat(c *gin.Context) {
	var req repeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m.session(c).SetRepeat(c.Request.Context(), queue.RepeatMode(req.Mode))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type seekRequest struct {
	PositionMs int64 `json:"positionMs"`
}

func (m *Manager) seek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m.session(c).Seek(c.Request.Context(), req.PositionMs)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
