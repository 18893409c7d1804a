package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
)

// Claims carries the identity issued by the identity provider. Subject is the
// prescriber id recorded on prescriptions; Roles gate route access
// (admin, clinician, pharmacist).
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey switches validation to HMAC. Development and tests only;
	// production tokens are RS256 against the issuer's published keys.
	SigningKey []byte
}

// keyRingTTL bounds how long fetched signing keys are trusted before a
// refetch.
const keyRingTTL = 5 * time.Minute

// keyRing holds the issuer's RSA signing keys, fetched lazily from the JWKS
// endpoint. A lookup for an unknown kid or a stale ring triggers a refetch,
// which covers routine key rotation without restarting the service.
type keyRing struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func newKeyRing(url string, ttl time.Duration) *keyRing {
	return &keyRing{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
		keys:   map[string]*rsa.PublicKey{},
	}
}

func (r *keyRing) signingKey(kid string) (*rsa.PublicKey, error) {
	r.mu.RLock()
	key, ok := r.keys[kid]
	stale := time.Since(r.fetchedAt) > r.ttl
	r.mu.RUnlock()

	if ok && !stale {
		return key, nil
	}

	if err := r.refetch(); err != nil {
		return nil, fmt.Errorf("refreshing signing keys: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if key, ok := r.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("no signing key for kid %q", kid)
}

func (r *keyRing) refetch() error {
	resp, err := r.client.Get(r.url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", r.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decoding JWKS response: %w", err)
	}

	fresh := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := rsaPublicKey(k.N, k.E)
		if err != nil {
			// Skip malformed entries; the rest of the ring is still usable.
			continue
		}
		fresh[k.Kid] = pub
	}

	r.mu.Lock()
	r.keys = fresh
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	return nil
}

// rsaPublicKey builds a key from the base64url modulus and exponent of a JWK.
func rsaPublicKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}

func (r *keyRing) keyfunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no kid header")
	}
	return r.signingKey(kid)
}

// JWTMiddleware validates bearer tokens and stores the caller's identity on
// the request context. With a SigningKey the token is verified by HMAC;
// otherwise keys come from the configured JWKS URL, falling back to OIDC
// discovery against the issuer.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	keyfunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }
	if len(cfg.SigningKey) == 0 {
		jwksURL := cfg.JWKSURL
		if jwksURL == "" && cfg.Issuer != "" {
			if provider, err := NewOIDCProvider(cfg.Issuer); err == nil {
				jwksURL = provider.JWKSURI
			}
		}
		keyfunc = newKeyRing(jwksURL, keyRingTTL).keyfunc
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := bearerToken(c.Request().Header.Get("Authorization"))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, keyfunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRolesKey, claims.Roles)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errors.New("authorization header is not a bearer token")
	}
	return token, nil
}

// DevAuthMiddleware grants unauthenticated requests an admin identity. Used
// only when the environment is development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" {
				return next(c)
			}
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, "dev-user")
			ctx = context.WithValue(ctx, UserRolesKey, []string{"admin"})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}
