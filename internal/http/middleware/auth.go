package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/encanta/encanta/config"
	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/logger"
)

// SessionCookie is the cookie the auth provider stores the session token in
const SessionCookie = "__session"

// clockSkew is the leeway allowed on exp and nbf
const clockSkew = 5 * time.Second

type sessionClaims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	SessionID       string `json:"sid,omitempty"`
	Email           string `json:"email,omitempty"`
}

// JWTResolver implements domain.IdentityResolver over session tokens issued by
// the auth provider. Tokens are RS256 signed when a public key is configured,
// HS256 with a shared secret otherwise.
type JWTResolver struct {
	method            string
	rsaKey            *rsa.PublicKey
	secret            []byte
	parser            *jwt.Parser
	authorizedParties map[string]struct{}
}

func NewJWTResolver(cfg config.AuthConfig) (*JWTResolver, error) {
	r := &JWTResolver{authorizedParties: map[string]struct{}{}}

	switch {
	case cfg.JWTPublicKey != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
		}
		r.method = jwt.SigningMethodRS256.Alg()
		r.rsaKey = key
	case cfg.JWTSecret != "":
		r.method = jwt.SigningMethodHS256.Alg()
		r.secret = []byte(cfg.JWTSecret)
	default:
		return nil, errors.New("either a JWT public key or a JWT secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{r.method}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	r.parser = jwt.NewParser(opts...)

	for _, party := range cfg.AuthorizedParties {
		r.authorizedParties[strings.TrimRight(party, "/")] = struct{}{}
	}
	return r, nil
}

// ResolveIdentity returns the identity asserted by the request's session
// token, or domain.ErrUnauthenticated
func (r *JWTResolver) ResolveIdentity(req *http.Request) (*domain.Identity, error) {
	raw := tokenFromRequest(req)
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}

	var claims sessionClaims
	if _, err := r.parser.ParseWithClaims(raw, &claims, r.key); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	if len(r.authorizedParties) > 0 && claims.AuthorizedParty != "" {
		if _, ok := r.authorizedParties[strings.TrimRight(claims.AuthorizedParty, "/")]; !ok {
			return nil, fmt.Errorf("%w: unauthorized party %q", domain.ErrUnauthenticated, claims.AuthorizedParty)
		}
	}

	return &domain.Identity{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		Email:     claims.Email,
	}, nil
}

func (r *JWTResolver) key(token *jwt.Token) (interface{}, error) {
	if r.rsaKey != nil {
		return r.rsaKey, nil
	}
	return r.secret, nil
}

func tokenFromRequest(req *http.Request) string {
	if header := req.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := req.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

type resolutionKey struct{}

// resolution is the outcome of resolving the caller once per request
type resolution struct {
	identity *domain.Identity
	err      error
}

func resolve(r *http.Request, resolver domain.IdentityResolver) resolution {
	if res, ok := r.Context().Value(resolutionKey{}).(resolution); ok {
		return res
	}
	identity, err := resolver.ResolveIdentity(r)
	if err == nil && (identity == nil || identity.UserID == "") {
		err = domain.ErrUnauthenticated
	}
	return resolution{identity: identity, err: err}
}

// LoadIdentity resolves the caller when a session is presented and keeps the
// outcome for RequireIdentity and RateLimit. Anonymous requests pass through.
func LoadIdentity(resolver domain.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				next.ServeHTTP(w, r)
				return
			}
			res := resolve(r, resolver)
			ctx := context.WithValue(r.Context(), resolutionKey{}, res)
			if res.err == nil {
				ctx = domain.WithIdentity(ctx, res.identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity stores the caller in the request context, reusing an
// earlier LoadIdentity outcome. Requests without a valid identity get
// 401 {"error":"Unauthorized"}.
func RequireIdentity(resolver domain.IdentityResolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := domain.IdentityFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			res := resolve(r, resolver)
			if res.err != nil {
				if !errors.Is(res.err, domain.ErrUnauthenticated) {
					log.Error(fmt.Sprintf("Failed to resolve identity: %v", res.err))
				} else {
					log.WithField("path", r.URL.Path).Debug(res.err.Error())
				}
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), res.identity)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
