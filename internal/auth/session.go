package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "aag_session"

var ErrNoSession = errors.New("no active session")

// Claims carries the logged-in member inside the session cookie.
type Claims struct {
	MemberID    string    `json:"member_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	LoginTime   time.Time `json:"login_time"`
	RefreshedAt time.Time `json:"refreshed_at"`
	jwt.RegisteredClaims
}

type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration, secure bool) (*Sessions, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}, nil
}

// Issue signs a session for claims, stamping refreshed_at and the expiry.
// LoginTime is kept when set so refreshed sessions report the original login.
func (s *Sessions) Issue(claims Claims) (string, Claims, error) {
	now := s.now().UTC()
	if claims.LoginTime.IsZero() {
		claims.LoginTime = now
	}
	claims.RefreshedAt = now
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.MemberID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, claims, nil
}

func (s *Sessions) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoSession
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.MemberID == "" {
		return nil, ErrNoSession
	}
	return claims, nil
}

// NeedsRefresh reports whether the cookie is older than the refresh interval.
func NeedsRefresh(claims *Claims, now time.Time, interval time.Duration) bool {
	if claims == nil {
		return false
	}
	return now.Sub(claims.RefreshedAt) >= interval
}

// Cookie builds the session cookie for a signed token.
func (s *Sessions) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
