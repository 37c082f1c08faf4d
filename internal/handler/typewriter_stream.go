package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storymatrix/internal/models"
	"storymatrix/internal/service"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Клиент ничего не шлёт, кроме close и pong.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Сервис локальный, origin ограничивает CORS
	CheckOrigin: func(r *http.Request) bool { return true },
}

// typewriterStream отдаёт по WebSocket слайды и шаги печатной машинки
// сессии проигрывания, пока клиент не закроет соединение или проигрывание не закончится.
func (h *GalleryHandler) typewriterStream(c *gin.Context) {
	sid := c.Param("sid")
	// Проверяем сессию до апгрейда, чтобы ответить обычным 404
	if _, err := h.playback.Frame(sid); err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.String("sessionID", sid), zap.Error(err))
		return
	}
	typewriterStreams.Inc()
	defer typewriterStreams.Dec()

	log := h.logger.With(zap.String("sessionID", sid))
	log.Info("Typewriter stream opened")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go readPump(conn, cancel, log)

	updates := make(chan service.StreamUpdate, 64)
	streamErr := make(chan error, 1)
	go func() {
		defer close(updates)
		streamErr <- h.playback.Stream(ctx, sid, func(u service.StreamUpdate) error {
			select {
			case updates <- u:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	writePump(conn, updates, log)
	cancel()

	closeCode, closeText := websocket.CloseNormalClosure, "stream finished"
	if err := <-streamErr; err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, models.ErrPlaybackFinished) {
			closeText = "playback finished"
		} else {
			closeCode, closeText = websocket.CloseInternalServerErr, "stream error"
			log.Warn("Typewriter stream failed", zap.Error(err))
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, closeText))
	_ = conn.Close()
	log.Info("Typewriter stream closed")
}

// readPump читает только управляющие сообщения. Любая ошибка чтения
// означает, что клиент ушёл, и отменяет поток.
func readPump(conn *websocket.Conn, cancel context.CancelFunc, log *zap.Logger) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump пишет обновления и пинги, пока канал updates открыт.
func writePump(conn *websocket.Conn, updates <-chan service.StreamUpdate, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			msg, err := json.Marshal(u)
			if err != nil {
				log.Error("Failed to marshal stream update", zap.Error(err))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("Failed to write stream update", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
