package inventory

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-inventory/middleware/jwtware"
)

// RouteAuthenticator issues session cookies and guards routes with the JWT
// middleware.
type RouteAuthenticator struct {
	auth                   Authenticator
	cfg                    Config
	cookieDuration         time.Duration
	extendedCookieDuration time.Duration
	secureCookies          bool
	Logger                 Logger
	ErrorHandler           fiber.ErrorHandler
}

// NewHTTPAuthenticator creates a RouteAuthenticator. Cookie lifetimes come
// from the token expiration settings, in hours.
func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	if auther == nil {
		return nil, goerrors.New("authenticator is required", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}

	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	extendedCookieDuration := cookieDuration
	if cfg.GetExtendedTokenDuration() > 0 {
		extendedCookieDuration = time.Duration(cfg.GetExtendedTokenDuration()) * time.Hour
	}

	_, logger := ResolveLogger("http.auth", nil, nil)
	a := &RouteAuthenticator{
		cfg:                    cfg,
		auth:                   auther,
		Logger:                 logger,
		cookieDuration:         cookieDuration,
		extendedCookieDuration: extendedCookieDuration,
		secureCookies:          true,
	}
	a.ErrorHandler = NewErrorHandler(logger)

	return a, nil
}

// WithLogger sets the logger and rebuilds the default error handler.
func (a *RouteAuthenticator) WithLogger(l Logger) *RouteAuthenticator {
	_, a.Logger = ResolveLogger("http.auth", nil, l)
	a.ErrorHandler = NewErrorHandler(a.Logger)
	return a
}

// WithSecureCookies toggles the Secure flag, off for plain http development.
func (a *RouteAuthenticator) WithSecureCookies(secure bool) *RouteAuthenticator {
	a.secureCookies = secure
	return a
}

func (a *RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a *RouteAuthenticator) GetExtendedCookieDuration() time.Duration {
	return a.extendedCookieDuration
}

// ProtectedRoute validates the session token from the configured lookup and
// stores the claims under the context key.
func (a *RouteAuthenticator) ProtectedRoute(validator TokenValidator, errorHandler fiber.ErrorHandler, listeners ...ValidationListener) fiber.Handler {
	if errorHandler == nil {
		errorHandler = a.MakeAuthErrorHandler(false)
	}
	cfg := jwtware.Config{
		ErrorHandler:    errorHandler,
		TokenValidator:  middlewareValidator(validator),
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		ContextEnricher: ContextEnricherAdapter,
	}
	RegisterValidationListeners(&cfg, listeners...)
	return jwtware.New(cfg)
}

// Login verifies the payload credentials and sets the session cookie. The
// token is returned as well for API clients.
func (a *RouteAuthenticator) Login(c *fiber.Ctx, payload LoginPayload) (string, error) {
	duration := a.cookieDuration
	if payload.GetExtendedSession() {
		duration = a.extendedCookieDuration
	}

	token, err := a.auth.Login(c.UserContext(), payload.GetIdentifier(), payload.GetPassword(), duration)
	if err != nil {
		a.Logger.Warn("login error", "identifier", NormalizeEmail(payload.GetIdentifier()), "error", err)
		return "", err
	}

	a.setCookieToken(c, token, duration)
	return token, nil
}

// SignIn sets a session cookie for an identity verified elsewhere.
func (a *RouteAuthenticator) SignIn(c *fiber.Ctx, identity Identity) (string, error) {
	token, err := a.auth.IssueToken(c.UserContext(), identity, a.cookieDuration)
	if err != nil {
		a.Logger.Error("sign in error", "error", err)
		return "", err
	}

	a.setCookieToken(c, token, a.cookieDuration)
	return token, nil
}

// Logout clears the session cookie.
func (a *RouteAuthenticator) Logout(c *fiber.Ctx) {
	a.cookieDel(c, a.cfg.GetContextKey())
}

// GetSession returns the session stored by ProtectedRoute.
func (a *RouteAuthenticator) GetSession(c *fiber.Ctx) (*SessionObject, error) {
	return GetRouterSession(c, a.cfg.GetContextKey())
}

// MakeAuthErrorHandler normalizes token errors into rich auth errors. When
// optional is true the request goes on without a session.
func (a *RouteAuthenticator) MakeAuthErrorHandler(optional bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var richErr *goerrors.Error

		switch {
		case IsTokenExpiredError(err):
			richErr = ErrTokenExpired
		case IsMalformedError(err):
			richErr = ErrTokenMalformed
		case goerrors.As(err, &richErr):
		default:
			richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid authentication token").
				WithCode(goerrors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Debug("optional auth failed, proceeding", "error", richErr.Message)
			return c.Next()
		}

		return a.ErrorHandler(c, richErr)
	}
}

// GetRouterSession reads the claims stored under key and turns them into a
// session.
func GetRouterSession(c *fiber.Ctx, key string) (*SessionObject, error) {
	value := c.Locals(key)
	if value == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := value.(AuthClaims)
	if !ok || claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	return sessionFromAuthClaims(claims)
}

func (a *RouteAuthenticator) setCookieToken(c *fiber.Ctx, val string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   a.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (a *RouteAuthenticator) cookieDel(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
