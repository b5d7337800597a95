// HTTP and websocket bridge between a chat platform and the report dispatcher.
//
// The platform side posts inbound messages and channel registrations as JSON, and consumes bot output from the
// websocket outbox. The gateway also answers message-link lookups from its message log.
package chatgw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bluesky-social/warden/dispatch"
	"github.com/bluesky-social/warden/flow"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// MessageHandler consumes inbound messages; in production this is the dispatcher.
type MessageHandler interface {
	OnMessage(ctx context.Context, msg dispatch.Message) error
}

type Config struct {
	Logger *slog.Logger
	// address to listen on, eg ":3300"
	Bind string
	// size and age bounds of the message log used to resolve report links
	MessageLogSize int
	MessageLogTTL  time.Duration
	// defaults to the global prometheus registry
	MetricsRegisterer prometheus.Registerer
}

type Gateway struct {
	Handler    MessageHandler
	Directory  *Directory
	MessageLog *MessageLog
	Hub        *Hub

	echo   *echo.Echo
	httpd  *http.Server
	logger *slog.Logger
}

var _ flow.Resolver = (*Gateway)(nil)
var _ dispatch.Sender = (*Gateway)(nil)

func NewGateway(dir *Directory, config Config) *Gateway {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if dir == nil {
		dir = NewDirectory()
	}
	logSize := config.MessageLogSize
	if logSize <= 0 {
		logSize = 100_000
	}
	logTTL := config.MessageLogTTL
	if logTTL <= 0 {
		logTTL = 7 * 24 * time.Hour
	}
	reg := config.MetricsRegisterer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gw := &Gateway{
		Directory:  dir,
		MessageLog: NewMessageLog(logSize, logTTL),
		Hub:        NewHub(),
		logger:     logger.With("component", "gateway"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "warden_gateway",
		Registerer: reg,
	}))
	e.Use(otelecho.Middleware("warden"))

	e.GET("/_health", gw.HandleHealthCheck)
	e.POST("/v1/messages", gw.HandlePostMessage)
	e.PUT("/v1/communities/:community/channels/:channel", gw.HandlePutChannel)
	e.GET("/v1/outbox", gw.HandleOutboxWebsocket)
	e.GET("/v1/outbox/:channel", gw.HandleOutboxPoll)

	gw.echo = e
	gw.httpd = &http.Server{
		Handler:           gw,
		Addr:              config.Bind,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return gw
}

func (gw *Gateway) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	gw.echo.ServeHTTP(rw, req)
}

// Start serves HTTP until Shutdown is called.
func (gw *Gateway) Start() error {
	gw.logger.Info("starting gateway", "bind", gw.httpd.Addr)
	if err := gw.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (gw *Gateway) Shutdown(ctx context.Context) error {
	return gw.httpd.Shutdown(ctx)
}

// Send publishes bot output to the outbox.
func (gw *Gateway) Send(ctx context.Context, channelID, text string) error {
	if channelID == "" {
		return errors.New("outbound message has no channel")
	}
	gw.Hub.Publish(channelID, text)
	return nil
}

// ResolveMessage looks up a linked message in the directory and message log.
func (gw *Gateway) ResolveMessage(ctx context.Context, link flow.MessageLink) (flow.Resolution, error) {
	if !gw.Directory.HasCommunity(link.CommunityID) {
		return flow.Resolution{Status: flow.CommunityNotFound}, nil
	}
	if _, ok := gw.Directory.ChannelName(link.CommunityID, link.ChannelID); !ok {
		return flow.Resolution{Status: flow.ChannelNotFound}, nil
	}
	msg, ok := gw.MessageLog.Lookup(link)
	if !ok {
		return flow.Resolution{Status: flow.MessageNotFound}, nil
	}
	return flow.Resolution{
		Status: flow.Found,
		Message: flow.ResolvedMessage{
			ID:          msg.ID,
			AuthorID:    msg.AuthorID,
			AuthorName:  msg.AuthorName,
			Content:     msg.Content,
			Attachments: append([]string(nil), msg.Attachments...),
		},
	}, nil
}

func (gw *Gateway) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (gw *Gateway) HandlePostMessage(c echo.Context) error {
	var msg Message
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid message body: %v", err))
	}
	if msg.ChannelID == "" || msg.AuthorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id and author_id are required")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	kind := "direct"
	if msg.CommunityID != "" {
		kind = "community"
		if msg.ChannelName != "" {
			gw.Directory.SetChannel(msg.CommunityID, msg.ChannelID, msg.ChannelName)
		} else if name, ok := gw.Directory.ChannelName(msg.CommunityID, msg.ChannelID); ok {
			msg.ChannelName = name
		}
		gw.MessageLog.Record(msg)
	}
	messagesIngested.WithLabelValues(kind).Inc()

	if gw.Handler == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no message handler configured")
	}
	if err := gw.Handler.OnMessage(c.Request().Context(), msg.DispatchMessage()); err != nil {
		gw.logger.Error("failed to handle message", "channel", msg.ChannelID, "author", msg.AuthorID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to handle message")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type putChannelBody struct {
	Name string `json:"name"`
}

func (gw *Gateway) HandlePutChannel(c echo.Context) error {
	var body putChannelBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid channel body: %v", err))
	}
	if body.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	community := c.Param("community")
	channel := c.Param("channel")
	gw.Directory.SetChannel(community, channel, body.Name)
	gw.logger.Info("registered channel", "community", community, "channel", channel, "name", body.Name)
	return c.NoContent(http.StatusNoContent)
}

func (gw *Gateway) HandleOutboxPoll(c echo.Context) error {
	var since uint64
	if s := c.QueryParam("since"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be a sequence number")
		}
		since = v
	}
	msgs := gw.Hub.Since(c.Param("channel"), since)
	if msgs == nil {
		msgs = []OutboundMessage{}
	}
	return c.JSON(http.StatusOK, msgs)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleOutboxWebsocket streams outbound messages as JSON frames. The optional "channel" query parameter restricts the
// stream to one channel.
func (gw *Gateway) HandleOutboxWebsocket(c echo.Context) error {
	// subscribe before the upgrade completes, so nothing published after the handshake is missed
	msgs, cancel := gw.Hub.Subscribe(c.QueryParam("channel"))
	defer cancel()

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	logger := gw.logger.With("remote", c.RealIP())
	logger.Info("outbox subscriber connected")

	// the read loop only detects disconnects
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request().Context()
	for {
		select {
		case <-disconnected:
			logger.Info("outbox subscriber disconnected")
			return nil
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			if err := ws.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				return nil
			}
			if err := ws.WriteJSON(msg); err != nil {
				logger.Info("outbox write failed", "err", err)
				return nil
			}
		}
	}
}
