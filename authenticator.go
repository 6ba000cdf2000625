package inventory

import (
	"context"
	"reflect"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Auther verifies credentials and issues session tokens.
type Auther struct {
	provider       IdentityProvider
	tokenService   TokenService
	tokenValidator TokenValidator
	logger         Logger
	activitySink   ActivitySink
	now            func() time.Time
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	_, logger := ResolveLogger("auth.authenticator", nil, nil)
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		jwt.ClaimStrings(opts.GetAudience()),
		logger,
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       logger,
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// WithClaimsDecorator sets the decorator run on claims before signing.
func (s *Auther) WithClaimsDecorator(decorator ClaimsDecorator) *Auther {
	if ts, ok := s.tokenService.(*TokenServiceImpl); ok {
		ts.WithClaimsDecorator(decorator)
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and returns a signed token. A zero ttl uses
// the configured expiration.
func (s *Auther) Login(ctx context.Context, identifier, password string, ttl time.Duration) (string, error) {
	identifier = NormalizeEmail(identifier)

	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Warn("login verify identity error", "identifier", identifier, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Email: identifier, Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("login identity is nil or zero value", "identifier", identifier)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Email: identifier, Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      ErrIdentityNotFound.Error(),
		})
		return "", ErrIdentityNotFound
	}

	token, err := s.tokenService.Generate(ctx, identity, ttl)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
	})

	return token, nil
}

// IssueToken signs a token for an identity that was verified elsewhere, such
// as a freshly registered account.
func (s *Auther) IssueToken(ctx context.Context, identity Identity, ttl time.Duration) (string, error) {
	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return "", ErrIdentityNotFound
	}
	return s.tokenService.Generate(ctx, identity, ttl)
}

// IdentityFromSession loads the stored identity behind a session. The email
// claim wins over the subject since hosted provider subjects are not our ids.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identifier := session.GetEmail()
	if identifier == "" {
		identifier = session.GetUserID()
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, identifier)
	if err != nil {
		s.logger.Error("identity from session failed", "identifier", identifier, "error", err)
		return nil, err
	}

	return identity, nil
}

// SessionFromToken validates raw and decodes the session it carries.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Debug("session from token validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("session from token failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: s.now(),
	})
}

func actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:    identity.ID(),
		Email: identity.Email(),
		Type:  "user",
	}
}
