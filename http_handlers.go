package main

// this file contains implementation of HTTP handlers - REST API and live feeds

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type httpHandlers struct {
	service Service
	show    *Show
	feeds   *Feeds
	cfg     *Config
	logger  zerolog.Logger
}

func NewHTTPRouter(service Service, show *Show, feeds *Feeds, cfg *Config, logger zerolog.Logger) *echo.Echo {
	h := &httpHandlers{
		service: service,
		show:    show,
		feeds:   feeds,
		cfg:     cfg,
		logger:  logger.With().Str("component", "http").Logger(),
	}
	jwtSecret := []byte(cfg.Auth.JWTSecret)

	r := echo.New()
	r.HideBanner = true
	r.HTTPErrorHandler = h.errorHandler
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
		Output: h.logger,
	}))
	r.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"*"},
	}))

	// live feeds for displays
	r.GET("/sse", h.sseHandler(FeedLine))
	r.GET("/line", h.sseHandler(FeedIndex))
	r.GET("/load", h.sseHandler(FeedLoad))
	r.GET("/ready", h.sseHandler(FeedReady))
	r.GET("/ws/:feed", h.websocketHandler)
	r.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	router := r.Group("/api")
	router.GET("/health", h.healthCheckHandler)
	router.POST("/login", h.loginHandler)
	router.GET("/songs", h.listSongsHandler)
	router.GET("/song", h.getSongHandler)
	router.GET("/show/status", h.statusHandler)

	control := router.Group("")
	control.Use(middleware.JWT(jwtSecret))
	{
		control.POST("/song", h.addSongHandler)
		control.PUT("/song/edit", h.editLineHandler)
		control.DELETE("/song/edit", h.deleteLineHandler)
		control.POST("/song/set", h.activateHandler)
		control.POST("/song/next", h.advanceHandler)
		control.POST("/reset", h.resetHandler)
		control.POST("/scene/ready", h.sceneReadyHandler)
	}

	return r
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoActiveSong), errors.Is(err, ErrActiveSongChanged):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidSong):
		return http.StatusBadRequest
	case errors.Is(err, ErrRepositoryUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *httpHandlers) errorHandler(err error, c echo.Context) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}
	if c.Response().Committed {
		return
	}

	message := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}
	if err := c.JSON(code, echo.Map{"message": message}); err != nil {
		h.logger.Debug().Err(err).Msg("writing error response")
	}
}

func (h *httpHandlers) healthCheckHandler(c echo.Context) error {
	return c.String(http.StatusOK, "I am up and running!")
}

func (h *httpHandlers) loginHandler(c echo.Context) error {
	form := struct {
		Key string `json:"key" form:"key"`
	}{}
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing key")
	}
	if form.Key != h.cfg.Auth.OperatorKey {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid key")
	}

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["sub"] = uuid.New().String()
	claims["exp"] = time.Now().Add(h.cfg.TokenTTL()).Unix()
	t, err := token.SignedString([]byte(h.cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token": t,
	})
}

func (h *httpHandlers) listSongsHandler(c echo.Context) error {
	songs, err := h.service.ListSongs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, songs)
}

func (h *httpHandlers) getSongHandler(c echo.Context) error {
	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing id")
	}
	snapshot, err := h.service.GetSong(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (h *httpHandlers) statusHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, h.show.Status())
}

func (h *httpHandlers) addSongHandler(c echo.Context) error {
	form := struct {
		Name  string `form:"name" json:"name"`
		Lines string `form:"lines" json:"lines"`
	}{}
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing form data")
	}
	id, err := h.service.AddSong(c.Request().Context(), form.Name, form.Lines)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (h *httpHandlers) editLineHandler(c echo.Context) error {
	var line Line
	if err := c.Bind(&line); err != nil || line.LineID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing line id")
	}
	if err := h.service.EditLine(c.Request().Context(), line); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func (h *httpHandlers) deleteLineHandler(c echo.Context) error {
	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing id")
	}
	if err := h.service.DeleteLine(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func (h *httpHandlers) activateHandler(c echo.Context) error {
	req := struct {
		ID int64 `json:"id"`
	}{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing id")
	}
	if err := h.show.Activate(c.Request().Context(), req.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func (h *httpHandlers) advanceHandler(c echo.Context) error {
	req := struct {
		Skips int `json:"skips"`
	}{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing skips")
	}
	cue, err := h.show.Advance(c.Request().Context(), req.Skips)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"line_index": cue.Index,
		"line":       cue.Text,
	})
}

func (h *httpHandlers) resetHandler(c echo.Context) error {
	h.show.Reset()
	return c.NoContent(http.StatusOK)
}

func (h *httpHandlers) sceneReadyHandler(c echo.Context) error {
	req := struct {
		Ready bool `json:"ready"`
	}{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing ready")
	}
	h.feeds.Ready.Publish(req.Ready)
	return c.NoContent(http.StatusOK)
}

func (h *httpHandlers) sseHandler(feed string) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := h.feeds.Open(feed, h.cfg.KeepAlive(), h.logger)
		if err != nil {
			return err
		}
		logger := h.sessionLogger(c, session)
		logger.Info().Str("transport", "sse").Msg("display connected")
		streamSessions.WithLabelValues(feed, "sse").Inc()
		defer streamSessions.WithLabelValues(feed, "sse").Dec()

		w := newSSEWriter(c.Response())
		err = session.Run(c.Request().Context(), w)
		logger.Info().AnErr("reason", err).Msg("display disconnected")
		return nil
	}
}

func (h *httpHandlers) websocketHandler(c echo.Context) error {
	feed := c.Param("feed")
	session, err := h.feeds.Open(feed, h.cfg.KeepAlive(), h.logger)
	if err != nil {
		return err
	}
	logger := h.sessionLogger(c, session)
	logger.Info().Str("transport", "websocket").Msg("display connected")
	streamSessions.WithLabelValues(feed, "websocket").Inc()
	defer streamSessions.WithLabelValues(feed, "websocket").Dec()

	err = serveWebsocket(c.Response(), c.Request(), session, logger)
	logger.Info().AnErr("reason", err).Msg("display disconnected")
	return nil
}

func (h *httpHandlers) sessionLogger(c echo.Context, session Session) zerolog.Logger {
	return h.logger.With().
		Str("session", session.ID()).
		Str("feed", session.Feed()).
		Str("user_agent", c.Request().UserAgent()).
		Logger()
}
