package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	models "TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	domsvc "TrendCast/internal/domain/service"
	"TrendCast/internal/service/auth"
	"TrendCast/internal/service/provider"
	"TrendCast/internal/service/ratelimit"
	"TrendCast/internal/services/features"
	"TrendCast/internal/services/forecast"
	"TrendCast/internal/usecase"
	xhttp "TrendCast/pkg/http"
	xlogger "TrendCast/pkg/logger"
)

// Login attempts allowed per remote address before the bucket empties.
const (
	loginBurst  = 5
	loginRefill = 0.5
)

const subjectContextKey = "auth.subject"

// PredictionsHandler exposes the token and prediction endpoints over Echo.
type PredictionsHandler struct {
	authority domsvc.Authority
	predictor *usecase.Predictor
	metrics   domrepo.Metrics
	rl        *ratelimit.Limiter
	logger    *xlogger.Logger
}

func NewPredictionsHandler(
	authority domsvc.Authority,
	predictor *usecase.Predictor,
	metrics domrepo.Metrics,
	logger *xlogger.Logger,
) *PredictionsHandler {
	return &PredictionsHandler{
		authority: authority,
		predictor: predictor,
		metrics:   metrics,
		rl:        ratelimit.New(),
		logger:    logger,
	}
}

func (h *PredictionsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/healthz", h.Health)
	e.POST("/token", h.Token)

	g := e.Group("/api", h.RequireToken)
	g.POST("/predict", h.Predict)
}

// Root reports service identity and the outcome labels it predicts.
func (h *PredictionsHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"service": "trendcast",
		"message": "instrument trend prediction API",
	})
}

// Health is a liveness probe. It does not touch downstream dependencies.
func (h *PredictionsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Token exchanges form credentials for a signed bearer token.
func (h *PredictionsHandler) Token(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":token", loginBurst, loginRefill) {
		h.logger.Warn("token endpoint rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.TooManyRequestsResponse(c, "too many login attempts")
	}

	req := &models.LoginRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	token, err := h.authority.Issue(req.Username, req.Password)
	if err != nil {
		h.metrics.RecordAuth("rejected")
		h.logger.Warn("token issuance refused", xlogger.String("username", req.Username))
		return xhttp.AppErrorResponse(c,
			xhttp.UnauthorizedError("ERR_INVALID_CREDENTIALS", "incorrect username or password").WithError(err))
	}

	h.metrics.RecordAuth("issued")
	return xhttp.SuccessResponse(c, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// RequireToken guards a route group with bearer-token validation. The
// subject lands in the request context for downstream handlers.
func (h *PredictionsHandler) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if raw == "" {
			h.metrics.RecordAuth("missing")
			return xhttp.AppErrorResponse(c,
				xhttp.UnauthorizedError("ERR_TOKEN_MISSING", "bearer token required"))
		}

		subject, err := h.authority.Validate(raw)
		if err != nil {
			h.metrics.RecordAuth("denied")
			return xhttp.AppErrorResponse(c, mapAuthError(err))
		}

		h.metrics.RecordAuth("accepted")
		c.Set(subjectContextKey, subject)
		return next(c)
	}
}

// Predict runs the prediction pipeline for the requested instrument.
func (h *PredictionsHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	pred, err := h.predictor.Predict(c.Request().Context(), req.Instrument)
	if err != nil {
		h.logger.Error("predict usecase error",
			xlogger.String("instrument", req.Instrument), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapPredictError(err))
	}
	return xhttp.SuccessResponse(c, pred)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// mapAuthError keeps the caller-visible reason stable while the raw
// verification failure stays server-side.
func mapAuthError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return xhttp.UnauthorizedError("ERR_TOKEN_EXPIRED", "token expired").WithError(err)
	case errors.Is(err, auth.ErrUnknownSubject):
		return xhttp.UnauthorizedError("ERR_UNKNOWN_SUBJECT", "token subject not recognized").WithError(err)
	default:
		return xhttp.UnauthorizedError("ERR_TOKEN_INVALID", "could not validate token").WithError(err)
	}
}

// mapPredictError translates pipeline stage failures into stable API errors.
// Upstream data failures are 502, everything internal is 500, and no
// internal error text crosses the boundary.
func mapPredictError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, provider.ErrUnavailable), errors.Is(err, provider.ErrFormat):
		return xhttp.BadGatewayError("ERR_DATA_UNAVAILABLE", "market data unavailable").WithError(err)
	case errors.Is(err, features.ErrInsufficientData):
		return xhttp.InternalError("ERR_INSUFFICIENT_DATA", "not enough history for a prediction").WithError(err)
	case errors.Is(err, features.ErrInvalidValue):
		return xhttp.InternalError("ERR_INVALID_DATA", "series contains invalid values").WithError(err)
	case errors.Is(err, forecast.ErrArtifactMissing), errors.Is(err, forecast.ErrArtifactIncompatible):
		return xhttp.InternalError("ERR_MODEL", "prediction model unavailable").WithError(err)
	default:
		return xhttp.NewAppError("ERR_INTERNAL", "internal error", http.StatusInternalServerError).WithError(err)
	}
}
