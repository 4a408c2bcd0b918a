package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/application/session"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

type JWTSigner struct {
	secret []byte
	issuer string
}

func NewJWTSigner(secret string, issuer string) *JWTSigner {
	return &JWTSigner{
		secret: []byte(secret),
		issuer: issuer,
	}
}

type accessClaims struct {
	AccountID string `json:"uid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) SignAccessToken(accountID string, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := accessClaims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTSigner) VerifyAccessToken(token string) (session.TokenClaims, error) {
	return s.parse(token, false)
}

// VerifyExpiredAccessToken accepts expired-but-signature-valid tokens. Only
// the refresh flow uses it, to recover which account is refreshing; the
// refresh token itself still gates the operation.
func (s *JWTSigner) VerifyExpiredAccessToken(token string) (session.TokenClaims, error) {
	return s.parse(token, true)
}

func (s *JWTSigner) parse(token string, allowExpired bool) (session.TokenClaims, error) {
	keyFn := func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrTokenInvalid()
		}
		return s.secret, nil
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, keyFn, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return session.TokenClaims{}, domain.ErrTokenExpired()
		}
		return session.TokenClaims{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return session.TokenClaims{}, domain.ErrTokenInvalid()
	}

	exp := time.Time{}
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	return session.TokenClaims{
		AccountID: claims.AccountID,
		Role:      claims.Role,
		Exp:       exp,
	}, nil
}
