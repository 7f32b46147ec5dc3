package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const runTokenType = "run"

// RunTokenService emite y valida los tokens que identifican una corrida anónima.
type RunTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type RunClaims struct {
	RunID     string `json:"rid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("run token invalid")
	ErrTokenExpired = errors.New("run token expired")
)

func NewRunTokenService(secret string, ttl time.Duration) *RunTokenService {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &RunTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "psy-assess",
		now:    time.Now,
	}
}

// Issue firma un token para la corrida; devuelve también su vencimiento.
func (s *RunTokenService) Issue(runID string) (string, time.Time, error) {
	if len(s.secret) == 0 || strings.TrimSpace(runID) == "" {
		return "", time.Time{}, ErrTokenInvalid
	}
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := RunClaims{
		RunID:     runID,
		TokenType: runTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   runID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (s *RunTokenService) Parse(tokenString string) (RunClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return RunClaims{}, ErrTokenInvalid
	}
	var claims RunClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return RunClaims{}, ErrTokenExpired
		}
		return RunClaims{}, ErrTokenInvalid
	}
	if !s.isValidClaims(claims) {
		return RunClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *RunTokenService) isValidClaims(claims RunClaims) bool {
	if claims.TokenType != runTokenType {
		return false
	}
	if strings.TrimSpace(claims.RunID) == "" || claims.Subject != claims.RunID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
