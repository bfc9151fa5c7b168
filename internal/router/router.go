package router

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"shineal/internal/auth"
	"shineal/internal/config"
	apperrors "shineal/internal/errors"
	"shineal/internal/handler"
	"shineal/internal/logging"
	"shineal/internal/metrics"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Deps holds everything the router wires into routes.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Tokens      TokenVerifier
	Gatherer    prometheus.Gatherer
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
}

// New creates an echo instance with middleware and routes registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	Register(e, d)
	return e
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = ErrorHandler(d.Logger)

	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(d.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: d.Config.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}
	if d.Config.IsDevelopment() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/signup", d.AuthHandler.Signup)
	api.POST("/login", d.AuthHandler.Login)

	// Secured routes (require a bearer token). The middleware is attached per
	// route so unmatched paths under /api still answer 404.
	requireToken := RequireToken(d.Tokens)
	api.GET("/user/:id", d.UserHandler.GetUser, requireToken)
	api.PUT("/user/:id", d.UserHandler.UpdateUser, requireToken)
	api.POST("/change-password", d.AuthHandler.ChangePassword, requireToken)
}

// RequireToken verifies the bearer token and stores its claims under
// handler.ClaimsContextKey.
func RequireToken(tokens TokenVerifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ClaimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return tokens.Verify(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization)) == "" {
				return apperrors.NewHTTPError(http.StatusUnauthorized, apperrors.MsgTokenRequired)
			}
			return apperrors.NewHTTPError(http.StatusUnauthorized, apperrors.MsgTokenInvalid)
		},
	})
}

// ErrorHandler renders every error as the {success, message} envelope.
// Domain errors are mapped to their status; anything unknown is logged and
// answered with a generic 500.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *apperrors.HTTPError
		var echoErr *echo.HTTPError
		switch {
		case errors.As(err, &httpErr):
		case errors.As(err, &echoErr):
			httpErr = fromEchoError(echoErr)
		default:
			httpErr = apperrors.MapErrorToHTTP(err)
		}

		if httpErr.StatusCode >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", err,
			)
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(httpErr.StatusCode)
		} else {
			sendErr = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		if sendErr != nil {
			logger.Error("write error response", "error", sendErr)
		}
	}
}

func fromEchoError(he *echo.HTTPError) *apperrors.HTTPError {
	switch he.Code {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperrors.NewHTTPError(http.StatusNotFound, apperrors.MsgEndpointNotFound)
	case http.StatusUnauthorized:
		return apperrors.NewHTTPError(http.StatusUnauthorized, apperrors.MsgTokenInvalid)
	case http.StatusInternalServerError:
		return apperrors.NewHTTPError(http.StatusInternalServerError, apperrors.MsgInternal)
	}
	if msg, ok := he.Message.(string); ok && msg != "" {
		return apperrors.NewHTTPError(he.Code, msg)
	}
	return apperrors.NewHTTPError(he.Code, http.StatusText(he.Code))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
