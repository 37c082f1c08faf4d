package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storymatrix/internal/editor"
	"storymatrix/internal/handler"
	"storymatrix/internal/messaging"
	"storymatrix/internal/models"
	"storymatrix/internal/navigator"
	"storymatrix/internal/service"
	"storymatrix/internal/service/mocks"
	"storymatrix/internal/store"
)

type HandlerTestSuite struct {
	suite.Suite
	repo     *mocks.GalleryStateRepository
	gallery  service.GalleryService
	playback service.PlaybackService
	router   *gin.Engine
}

// Коллекторы регистрируются в глобальном реестре, поэтому экземпляр один на процесс.
var (
	metricsOnce sync.Once
	metrics     *ginprometheus.Prometheus
)

func testMetrics() *ginprometheus.Prometheus {
	metricsOnce.Do(func() {
		metrics = ginprometheus.NewPrometheus("storymatrix_test")
	})
	return metrics
}

func TestHandlerSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.setup(handler.Options{RateLimitPerSecond: 100, MaxBodyBytes: 1 << 20})
}

func (s *HandlerTestSuite) setup(opts handler.Options) {
	logger := zap.NewNop()
	s.repo = new(mocks.GalleryStateRepository)
	s.repo.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	s.gallery = service.NewGalleryService(store.New(), s.repo, messaging.NoopPublisher{}, logger)
	ed := service.NewEditorService(s.gallery, handler.DragListeners{}, logger)
	s.playback = service.NewPlaybackService(s.gallery, logger)

	h := handler.NewGalleryHandler(s.gallery, ed, s.playback, opts, logger)
	s.router = handler.NewRouter(h, testMetrics(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *HandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// ingest добавляет моменты и возвращает их id в порядке запроса.
func (s *HandlerTestSuite) ingest(urls ...string) []string {
	items := make([]map[string]string, 0, len(urls))
	for _, u := range urls {
		items = append(items, map[string]string{"url": u, "mimeType": "image/jpeg", "source": "url"})
	}
	w := s.do(http.MethodPost, "/moments/ingest", map[string]any{"items": items})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Added []models.Moment `json:"added"`
	}
	s.decode(w, &resp)
	ids := make([]string, 0, len(resp.Added))
	for _, m := range resp.Added {
		ids = append(ids, m.ID)
	}
	return ids
}

func (s *HandlerTestSuite) createStory(title string, ids []string) models.Story {
	w := s.do(http.MethodPost, "/stories", map[string]any{"title": title, "momentIds": ids})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var story models.Story
	s.decode(w, &story)
	return story
}

func (s *HandlerTestSuite) TestIngestAndList() {
	ids := s.ingest("https://x/1.jpg", "https://x/2.jpg")
	s.Len(ids, 2)

	w := s.do(http.MethodGet, "/moments", nil)
	s.Equal(http.StatusOK, w.Code)
	var list []models.Moment
	s.decode(w, &list)
	s.Len(list, 2)

	w = s.do(http.MethodGet, "/moments/"+ids[0], nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestIngestValidation() {
	w := s.do(http.MethodPost, "/moments/ingest", map[string]any{"items": []any{}})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/moments/ingest", map[string]any{"items": []map[string]string{{"mimeType": "image/png"}}})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestMissingMoment() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/moments/nope", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/moments/nope", nil).Code)
}

func (s *HandlerTestSuite) TestDeleteMoments() {
	ids := s.ingest("a", "b", "c")
	w := s.do(http.MethodPost, "/moments/delete", map[string]any{"ids": []string{ids[0], ids[2]}})
	s.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		Deleted int `json:"deleted"`
	}
	s.decode(w, &resp)
	s.Equal(2, resp.Deleted)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/moments/"+ids[1], nil).Code)
}

func (s *HandlerTestSuite) TestPersistenceFailureIsInternalError() {
	s.repo.ExpectedCalls = nil
	s.repo.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(testError("disk full"))

	w := s.do(http.MethodPost, "/moments/ingest", map[string]any{"items": []map[string]string{{"url": "a"}}})
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Empty(s.gallery.ListMoments(""))
}

func (s *HandlerTestSuite) TestStoriesFlow() {
	ids := s.ingest("a", "b", "c")
	story := s.createStory("Trip", []string{ids[0], ids[1]})
	s.Equal("Trip", story.Title)

	w := s.do(http.MethodPost, "/stories/"+story.ID+"/moments", map[string]any{"ids": []string{ids[2], ids[0]}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &story)
	s.Equal([]string{ids[0], ids[1], ids[2]}, story.MomentIDs)

	w = s.do(http.MethodPost, "/stories/"+story.ID+"/reorder", map[string]any{
		"draggedId": ids[2], "targetId": ids[0], "side": "left",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &story)
	s.Equal([]string{ids[2], ids[0], ids[1]}, story.MomentIDs)

	w = s.do(http.MethodPatch, "/stories/"+story.ID, map[string]string{"title": "Holiday"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &story)
	s.Equal("Holiday", story.Title)

	w = s.do(http.MethodGet, "/stories/"+story.ID+"/moments", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var moments []models.Moment
	s.decode(w, &moments)
	s.Len(moments, 3)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/stories/"+story.ID, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/stories/"+story.ID, nil).Code)
}

func (s *HandlerTestSuite) TestCreateStoryRequiresTitle() {
	ids := s.ingest("a")
	w := s.do(http.MethodPost, "/stories", map[string]any{"title": "", "momentIds": ids})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestSelection() {
	ids := s.ingest("a", "b")
	w := s.do(http.MethodPost, "/selection/toggle", map[string]string{"momentId": ids[1]})
	s.Require().Equal(http.StatusOK, w.Code)
	var sel struct {
		Selection []string `json:"selection"`
	}
	s.decode(w, &sel)
	s.Equal([]string{ids[1]}, sel.Selection)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/selection", nil).Code)
	w = s.do(http.MethodGet, "/selection", nil)
	s.decode(w, &sel)
	s.Empty(sel.Selection)
}

func (s *HandlerTestSuite) TestExportImport() {
	s.ingest("a", "b")
	w := s.do(http.MethodGet, "/export", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Disposition"), "attachment;")
	exported := w.Body.String()

	s.ingest("c")
	w = s.do(http.MethodPost, "/import", exported)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var res service.ImportResult
	s.decode(w, &res)
	s.Equal(2, res.Moments)
	s.True(res.MomentsReplaced)
	s.Len(s.gallery.ListMoments(""), 2)
}

func (s *HandlerTestSuite) TestImportMalformed() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/import", `{"things":1}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/import", `not json`).Code)
}

func (s *HandlerTestSuite) TestImportTooLarge() {
	s.setup(handler.Options{RateLimitPerSecond: 100, MaxBodyBytes: 16})
	w := s.do(http.MethodPost, "/import", `{"moments":[],"stories":[]}`)
	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
}

func (s *HandlerTestSuite) TestImportRateLimited() {
	s.setup(handler.Options{RateLimitPerSecond: 1, MaxBodyBytes: 1 << 20})
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/import", `{"moments":[]}`).Code)
	w := s.do(http.MethodPost, "/import", `{"moments":[]}`)
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.NotEmpty(w.Header().Get("Retry-After"))
}

func (s *HandlerTestSuite) TestCatalog() {
	w := s.do(http.MethodGet, "/catalog", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var cat map[string]json.RawMessage
	s.decode(w, &cat)
	s.Contains(cat, "fonts")
	s.Contains(cat, "effects")
	s.Contains(cat, "stickers")
}

func (s *HandlerTestSuite) TestMetricsCoverGalleryRoutes() {
	for i := 0; i < 3; i++ {
		s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/catalog", nil).Code)
	}
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/health", nil).Code)

	w := s.do(http.MethodGet, "/metrics", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var catalogSeen, healthSeen bool
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "storymatrix_test_requests_total{") {
			continue
		}
		if strings.Contains(line, `url="/catalog"`) && strings.Contains(line, `code="200"`) {
			catalogSeen = true
		}
		if strings.Contains(line, `url="/health"`) {
			healthSeen = true
		}
	}
	s.True(catalogSeen, "no request counter for /catalog in:\n%s", w.Body.String())
	s.True(healthSeen, "no request counter for /health")
}

func (s *HandlerTestSuite) TestRenderMoment() {
	ids := s.ingest("a")
	w := s.do(http.MethodGet, "/moments/"+ids[0]+"/render?scale=0.5&elapsedMs=100", nil)
	s.Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/moments/"+ids[0]+"/render?scale=-1", nil).Code)

	for _, q := range []string{"elapsedMs=NaN", "elapsedMs=Inf", "scale=NaN", "scale=+Inf", "elapsedMs=-Inf"} {
		w := s.do(http.MethodGet, "/moments/"+ids[0]+"/render?"+q, nil)
		s.Equal(http.StatusBadRequest, w.Code, q)
	}
}

func (s *HandlerTestSuite) TestEditorWithoutSession() {
	s.Equal(http.StatusConflict, s.do(http.MethodGet, "/editor", nil).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPut, "/editor/text", map[string]string{"text": "x"}).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodDelete, "/editor", nil).Code)
}

func (s *HandlerTestSuite) TestEditorSaveFlow() {
	ids := s.ingest("a")
	s.Require().Equal(http.StatusNotFound, s.do(http.MethodPost, "/editor/open/nope", nil).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/editor/open/"+ids[0], nil).Code)

	w := s.do(http.MethodPut, "/editor/text", map[string]string{"text": "hello brave world"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/editor/word", map[string]any{"index": 7})
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/editor/word", map[string]any{"index": 1})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/editor/stickers", map[string]string{"content": "⭐"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		State      editor.State      `json:"state"`
		Transforms []json.RawMessage `json:"transforms"`
	}
	s.decode(w, &resp)
	s.Len(resp.State.Buffer.Stickers, 1)
	s.Len(resp.Transforms, 1)

	w = s.do(http.MethodPost, "/editor/save", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var saved models.Moment
	s.decode(w, &saved)
	s.Require().NotNil(saved.Metadata)
	s.Equal("hello brave world", saved.Metadata.OverlayText)
	s.Len(saved.Metadata.Stickers, 1)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/editor", nil).Code)
}

func (s *HandlerTestSuite) TestEditorDrag() {
	ids := s.ingest("a")
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/editor/open/"+ids[0], nil).Code)
	w := s.do(http.MethodPost, "/editor/stickers", map[string]string{"content": "⭐"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var resp struct {
		State editor.State `json:"state"`
	}
	s.decode(w, &resp)
	stickerID := resp.State.Buffer.Stickers[0].ID

	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/editor/drag/move", map[string]any{"pointer": map[string]float64{"x": 1, "y": 1}}).Code)

	w = s.do(http.MethodPost, "/editor/drag/begin", map[string]any{
		"stickerId": stickerID,
		"pointer":   map[string]float64{"x": 100, "y": 100},
		"container": map[string]float64{"width": 400, "height": 400},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/editor/drag/move", map[string]any{"pointer": map[string]float64{"x": 200, "y": 200}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/editor/drag/end", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var ended struct {
		Ended bool `json:"ended"`
	}
	s.decode(w, &ended)
	s.True(ended.Ended)
}

func (s *HandlerTestSuite) startPlayback(storyID string) string {
	w := s.do(http.MethodPost, "/playback", map[string]string{"storyId": storyID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		SessionID string          `json:"sessionId"`
		Frame     navigator.Frame `json:"frame"`
	}
	s.decode(w, &resp)
	s.Equal(0, resp.Frame.Index)
	return resp.SessionID
}

func (s *HandlerTestSuite) TestPlaybackKeys() {
	ids := s.ingest("a", "b")
	story := s.createStory("Trip", ids)
	sid := s.startPlayback(story.ID)

	w := s.do(http.MethodPost, "/playback/"+sid+"/key", map[string]string{"key": "ArrowRight"})
	s.Require().Equal(http.StatusOK, w.Code)
	var key struct {
		Action navigator.Action `json:"action"`
		Frame  navigator.Frame  `json:"frame"`
	}
	s.decode(w, &key)
	s.Equal(navigator.ActionAdvance, key.Action)
	s.Equal(1, key.Frame.Index)

	w = s.do(http.MethodPost, "/playback/"+sid+"/jump", map[string]string{"momentId": ids[0]})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/playback/"+sid+"/choice", map[string]string{"choiceId": "ghost"})
	s.Equal(http.StatusNotFound, w.Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/playback/"+sid, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/playback/"+sid, nil).Code)
}

func (s *HandlerTestSuite) TestPlaybackErrors() {
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/playback", map[string]string{"storyId": "nope"}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/playback", map[string]string{}).Code)

	ids := s.ingest("a")
	story := s.createStory("Trip", ids)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/moments/"+ids[0], nil).Code)
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodPost, "/playback", map[string]string{"storyId": story.ID}).Code)
}

func (s *HandlerTestSuite) TestTypewriterStream() {
	ids := s.ingest("a", "b")
	story := s.createStory("Trip", ids)
	sid := s.startPlayback(story.ID)

	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/playback/" + sid + "/typewriter"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var update service.StreamUpdate
	s.Require().NoError(conn.ReadJSON(&update))
	s.Require().NotNil(update.Slide)
	s.Equal(ids[0], update.Slide.Moment.ID)

	// Выход из проигрывания закрывает поток
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/playback/"+sid, nil).Code)
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	s.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
}

func (s *HandlerTestSuite) TestTypewriterStreamUnknownSession() {
	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/playback/missing/typewriter"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

type testError string

func (e testError) Error() string { return string(e) }
