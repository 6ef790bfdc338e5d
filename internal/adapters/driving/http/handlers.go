package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
	"github.com/custodia-labs/tokenbridge/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns ready once the durable store answers a ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "Durable store unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.WithError(err).Warn("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "durable store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// OAuth flow endpoints

// handleAuthorize godoc
// @Summary      Start OAuth flow
// @Description  Redirects the browser to the identity provider's consent page
// @Tags         OAuth
// @Success      302
// @Router       /authorize [get]
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.bridge.AuthorizeURL(), http.StatusFound)
}

// handleLogin godoc
// @Summary      OAuth callback
// @Description  Exchanges the authorization code and shows a single-use handle to pass to the bot.
// @Description  Responds with JSON instead of HTML when the client accepts application/json.
// @Tags         OAuth
// @Produce      html
// @Produce      json
// @Param        code  query     string  true  "Authorization code"
// @Success      200   {object}  driving.ExchangeResult
// @Failure      400   {object}  ErrorResponse  "Missing code"
// @Failure      502   {object}  ErrorResponse  "Provider rejected the code"
// @Router       /login [get]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	result, err := s.bridge.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if prefersJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}

	page := loginPage{
		Handle:    string(result.Handle),
		BotName:   s.botName,
		ExpiresAt: result.ExpiresAt,
	}
	if s.botName != "" {
		page.Link = "https://t.me/" + url.PathEscape(s.botName) + "?start=" + url.QueryEscape(string(result.Handle))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := loginTemplate.Execute(w, page); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
	}
}

// Linking endpoints

// handleLink godoc
// @Summary      Link handle to identity
// @Description  Moves the token bundle parked under handle into the durable store under identity.
// @Description  The handle is consumed; repeating the call returns 404.
// @Tags         Link
// @Produce      json
// @Param        handle    query     string  true  "Handle issued by /login"
// @Param        identity  query     string  true  "External identity key"
// @Success      200       {object}  StatusResponse
// @Failure      400       {object}  ErrorResponse  "Missing or malformed parameter"
// @Failure      404       {object}  ErrorResponse  "Unknown or consumed handle"
// @Failure      503       {object}  ErrorResponse  "Durable store unavailable"
// @Failure      500       {object}  ErrorResponse  "Internal server error"
// @Router       /api/v1/link [post]
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := driving.LinkRequest{
		Handle:   domain.Handle(q.Get("handle")),
		Identity: domain.ExternalIdentity(q.Get("identity")),
	}

	if err := s.bridge.Link(r.Context(), req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "linked"})
}

// handleLookup godoc
// @Summary      Look up linked tokens
// @Description  Returns the serialized token bundle stored for identity. Requires the shared lookup secret header.
// @Tags         Link
// @Produce      json
// @Param        identity         query   string  true  "External identity key"
// @Param        X-Bridge-Secret  header  string  true  "Shared lookup secret"
// @Success      200  {object}  domain.TokenBundle
// @Failure      401  {object}  ErrorResponse  "Bad or missing secret"
// @Failure      404  {object}  ErrorResponse  "No record for identity"
// @Failure      503  {object}  ErrorResponse  "Durable store unavailable"
// @Router       /api/v1/tokens [get]
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	record, err := s.bridge.Lookup(r.Context(), driving.LookupRequest{
		Identity: domain.ExternalIdentity(r.URL.Query().Get("identity")),
		Secret:   r.Header.Get(s.secretHeader),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// The record is written back byte for byte.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(record))
}

// Helper functions

type loginPage struct {
	Handle    string
	BotName   string
	Link      string
	ExpiresAt time.Time
}

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="robots" content="noindex">
<title>Finish linking</title>
</head>
<body>
<h1>Almost there</h1>
{{- if .Link}}
<p><a id="handoff" href="{{.Link}}">Open @{{.BotName}}</a> to finish linking your account.</p>
<p>If the link does not open, send the bot this message:</p>
{{- else}}
<p>Send the bot this message to finish linking your account:</p>
{{- end}}
<pre id="command">/start {{.Handle}}</pre>
{{- if not .ExpiresAt.IsZero}}
<p>This code can be used once and expires at {{.ExpiresAt.UTC.Format "15:04 MST"}}.</p>
{{- else}}
<p>This code can be used once.</p>
{{- end}}
</body>
</html>
`))

// statusFor maps a service error to an HTTP status and a public message.
// Detail stays in the server log.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "upstream provider error"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"status":     status,
		"request_id": RequestIDFromContext(r.Context()),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	writeError(w, status, message)
}

func prefersJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
