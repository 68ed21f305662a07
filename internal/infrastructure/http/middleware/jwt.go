package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"3tcapital/ms_emision_dian/internal/infrastructure/config"
	httperrors "3tcapital/ms_emision_dian/internal/infrastructure/http"
)

const (
	jwksRefreshInterval = 6 * time.Hour
	jwksHTTPTimeout     = 10 * time.Second
	authErrorMessage    = "Error de Autenticación"
)

var acceptedAlgorithms = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodRS384.Alg(),
	jwt.SigningMethodRS512.Alg(),
	jwt.SigningMethodPS256.Alg(),
	jwt.SigningMethodES256.Alg(),
}

type callerKey struct{}

// Caller is the identity the ERP presented in its bearer token.
type Caller struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// JWTAuthenticator guards the document endpoints with bearer tokens signed by
// keys from a remote JWKS. Bypass entries ending in "/*" match a whole subtree.
type JWTAuthenticator struct {
	enabled  bool
	log      *slog.Logger
	keys     keyfunc.Keyfunc
	parser   *jwt.Parser
	stop     context.CancelFunc
	exact    map[string]struct{}
	prefixes []string
}

func NewJWTAuthenticator(cfg config.AuthSettings, log *slog.Logger) (*JWTAuthenticator, error) {
	a := &JWTAuthenticator{
		enabled: cfg.Enabled,
		log:     log,
		exact:   make(map[string]struct{}, len(cfg.BypassPaths)),
	}
	for _, p := range cfg.BypassPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok && strings.HasSuffix(prefix, "/") {
			a.prefixes = append(a.prefixes, prefix)
			continue
		}
		a.exact[p] = struct{}{}
	}
	if !cfg.Enabled {
		return a, nil
	}

	opts := []jwt.ParserOption{
		jwt.WithIssuer(cfg.IssuerURI),
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithValidMethods(acceptedAlgorithms),
		jwt.WithExpirationRequired(),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	a.parser = jwt.NewParser(opts...)

	ctx, stop := context.WithCancel(context.Background())
	keys, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{cfg.JWKSetURI}, keyfunc.Override{
		RefreshInterval: jwksRefreshInterval,
		HTTPTimeout:     jwksHTTPTimeout,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(_ context.Context, err error) {
				log.Error("jwks refresh failed", "url", url, "error", err)
			}
		},
	})
	if err != nil {
		stop()
		return nil, fmt.Errorf("load jwks from %s: %w", cfg.JWKSetURI, err)
	}
	a.keys = keys
	a.stop = stop
	return a, nil
}

// Middleware rejects requests without a valid bearer token with 401 and
// stores the verified Caller in the request context otherwise.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	if !a.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.shouldBypass(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			a.log.DebugContext(r.Context(), "missing bearer token", "path", r.URL.Path, "error", err)
			httperrors.WriteError(w, http.StatusUnauthorized, authErrorMessage, []string{"Credenciales de acceso no válidas"}, a.log)
			return
		}

		caller, err := a.verify(raw)
		if err != nil {
			a.log.WarnContext(r.Context(), "token rejected", "path", r.URL.Path, "error", err)
			httperrors.WriteError(w, http.StatusUnauthorized, authErrorMessage, []string{"Token inválido o expirado"}, a.log)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func (a *JWTAuthenticator) verify(raw string) (Caller, error) {
	var claims jwt.RegisteredClaims
	if _, err := a.parser.ParseWithClaims(raw, &claims, a.keys.Keyfunc); err != nil {
		return Caller{}, err
	}
	caller := Caller{Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		caller.ExpiresAt = claims.ExpiresAt.Time
	}
	return caller, nil
}

// Close stops the background JWKS refresh.
func (a *JWTAuthenticator) Close() {
	if a.stop != nil {
		a.stop()
	}
}

func (a *JWTAuthenticator) shouldBypass(path string) bool {
	if _, ok := a.exact[path]; ok {
		return true
	}
	for _, prefix := range a.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the verified caller, if the request carried one.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}

// SubjectFromContext is shorthand for the caller's subject, or "".
func SubjectFromContext(ctx context.Context) string {
	caller, _ := CallerFromContext(ctx)
	return caller.Subject
}

func extractBearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	switch {
	case header == "":
		return "", errors.New("no Authorization header")
	case !found || !strings.EqualFold(scheme, "Bearer"):
		return "", errors.New("authorization scheme is not Bearer")
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", errors.New("malformed bearer token")
	}
	return token, nil
}
