package httpserver

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/shreesha345/RudraOne-1/internal/audio"
	"github.com/shreesha345/RudraOne-1/internal/recordings"
	"github.com/shreesha345/RudraOne-1/internal/session"
	"github.com/shreesha345/RudraOne-1/internal/training"
)

// Lister exposes recording listings to the API.
type Lister interface {
	ListByDate(date string) ([]recordings.Recording, error)
}

// Settings is the mutable dispatcher configuration surface.
type Settings struct {
	DispatcherLanguage string          `json:"dispatcherLanguage"`
	AutoTranslate      map[string]bool `json:"autoTranslate"`
}

// Server is the echo HTTP surface over the call manager and services.
type Server struct {
	Echo *echo.Echo

	manager    *session.Manager
	insights   session.Insights
	tracker    session.Protocol
	recordings Lister
	training   *training.Service

	mu       sync.Mutex
	settings Settings
}

// New wires the routes. recordings may be nil when Twilio is not
// configured; its routes then answer 503. trainer may be nil when no
// scenario dataset is available; training routes then answer 503.
func New(manager *session.Manager, insights session.Insights, tracker session.Protocol, lister Lister, trainer *training.Service, dispatcherLang string) *Server {
	s := &Server{
		manager:    manager,
		insights:   insights,
		tracker:    tracker,
		recordings: lister,
		training:   trainer,
		settings: Settings{
			DispatcherLanguage: dispatcherLang,
			AutoTranslate:      make(map[string]bool),
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", s.handleHealthz)
	e.GET("/settings", s.handleGetSettings)
	e.POST("/settings", s.handlePostSettings)
	e.POST("/audio/stream", s.handleAudioStream)
	e.GET("/recordings", s.handleListRecordings)
	e.GET("/calls/:callerId/insights", s.handleInsights)
	e.GET("/calls/:callerId/questions", s.handleQuestions)
	e.GET("/calls/:callerId/transcript", s.handleTranscript)
	e.POST("/calls/:callerId/message", s.handleMessage)
	e.POST("/calls/:callerId/end", s.handleEnd)
	e.POST("/training/start", s.handleTrainingStart)
	e.POST("/training/message", s.handleTrainingMessage)
	e.POST("/training/end", s.handleTrainingEnd)
	e.GET("/training/session/:sessionId", s.handleTrainingSession)

	s.Echo = e
	return s
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) handleGetSettings(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.settings)
}

func (s *Server) handlePostSettings(c echo.Context) error {
	var in Settings
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid settings payload")
	}
	s.mu.Lock()
	if in.DispatcherLanguage != "" {
		s.settings.DispatcherLanguage = in.DispatcherLanguage
	}
	for caller, enabled := range in.AutoTranslate {
		s.settings.AutoTranslate[caller] = enabled
	}
	out := s.settings
	s.mu.Unlock()
	return c.JSON(http.StatusOK, out)
}

type audioStreamRequest struct {
	AudioBase64 string `json:"audioBase64"`
	CallerID    string `json:"callerId"`
}

// handleAudioStream accepts one dispatcher microphone chunk and feeds it
// into the caller's session.
func (s *Server) handleAudioStream(c echo.Context) error {
	var req audioStreamRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid audio payload")
	}
	if req.CallerID == "" || req.AudioBase64 == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "callerId and audioBase64 required")
	}
	pcm, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audioBase64 is not valid base64")
	}
	sess := s.manager.Select(req.CallerID)
	sess.PushMicSamples(audio.DecodePCM16(pcm))
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleListRecordings(c echo.Context) error {
	if s.recordings == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "recordings backend not configured")
	}
	list, err := s.recordings.ListByDate(c.QueryParam("date"))
	if err != nil {
		log.Printf("httpserver: list recordings failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list recordings")
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleInsights(c echo.Context) error {
	return c.JSON(http.StatusOK, s.insights.Record(c.Param("callerId")))
}

func (s *Server) handleQuestions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.tracker.Questions(c.Param("callerId")))
}

func (s *Server) handleTranscript(c echo.Context) error {
	sess, ok := s.manager.Get(c.Param("callerId"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no session for caller")
	}
	return c.JSON(http.StatusOK, sess.Turns())
}

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleMessage(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text required")
	}
	sess := s.manager.Select(c.Param("callerId"))
	if err := sess.SendChat(req.Text); err != nil {
		log.Printf("httpserver: chat injection for %s failed: %v", c.Param("callerId"), err)
		return echo.NewHTTPError(http.StatusBadGateway, "call stream unavailable")
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleEnd(c echo.Context) error {
	s.manager.End(c.Param("callerId"))
	return c.NoContent(http.StatusOK)
}

type trainingRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type trainingResponse struct {
	Status         string `json:"status"`
	SessionID      string `json:"session_id"`
	Message        string `json:"message"`
	CallerResponse string `json:"caller_response,omitempty"`
	Score          int    `json:"confidence_score,omitempty"`
	Evaluation     string `json:"evaluation,omitempty"`
}

// trainingError maps service errors onto HTTP status codes.
func trainingError(err error) error {
	switch {
	case errors.Is(err, training.ErrExists):
		return echo.NewHTTPError(http.StatusBadRequest, "session already exists")
	case errors.Is(err, training.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "training session not found")
	case errors.Is(err, training.ErrNotActive):
		return echo.NewHTTPError(http.StatusBadRequest, "training session is not active")
	default:
		log.Printf("httpserver: training request failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "training backend error")
	}
}

func (s *Server) handleTrainingStart(c echo.Context) error {
	if s.training == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "training system not initialized")
	}
	var req trainingRequest
	if err := c.Bind(&req); err != nil || req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id required")
	}
	opening, err := s.training.Start(c.Request().Context(), req.SessionID)
	if err != nil {
		return trainingError(err)
	}
	return c.JSON(http.StatusOK, trainingResponse{
		Status: "success", SessionID: req.SessionID,
		Message: "Training session started", CallerResponse: opening,
	})
}

func (s *Server) handleTrainingMessage(c echo.Context) error {
	if s.training == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "training system not initialized")
	}
	var req trainingRequest
	if err := c.Bind(&req); err != nil || req.SessionID == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id and message required")
	}
	reply, err := s.training.Message(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		return trainingError(err)
	}
	return c.JSON(http.StatusOK, trainingResponse{
		Status: "success", SessionID: req.SessionID,
		Message: "Message sent and response received", CallerResponse: reply,
	})
}

func (s *Server) handleTrainingEnd(c echo.Context) error {
	if s.training == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "training system not initialized")
	}
	var req trainingRequest
	if err := c.Bind(&req); err != nil || req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id required")
	}
	eval, err := s.training.End(c.Request().Context(), req.SessionID)
	if err != nil {
		return trainingError(err)
	}
	return c.JSON(http.StatusOK, trainingResponse{
		Status: "success", SessionID: req.SessionID,
		Message: "Training session ended", Score: eval.Score, Evaluation: eval.Text,
	})
}

func (s *Server) handleTrainingSession(c echo.Context) error {
	if s.training == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "training system not initialized")
	}
	snap, err := s.training.Session(c.Param("sessionId"))
	if err != nil {
		return trainingError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Start runs the server on the given address, blocking until shutdown.
func (s *Server) Start(address string) error {
	return s.Echo.Start(address)
}
