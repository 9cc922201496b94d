package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PurposeAuth          = "auth"
	PurposePasswordReset = "password_reset"
)

type Claims struct {
	UserID  string `json:"userId"`
	Purpose string `json:"purpose"`
	// Fingerprint ties a reset token to the password hash it was minted for,
	// so the token stops working once the password changes.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret      []byte
	authExpiry  time.Duration
	resetExpiry time.Duration
	now         func() time.Time
}

func NewJWTService(secret string, authExpiry, resetExpiry time.Duration) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		authExpiry:  authExpiry,
		resetExpiry: resetExpiry,
		now:         time.Now,
	}
}

func (s *JWTService) sign(userID primitive.ObjectID, purpose, fingerprint string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:      userID.Hex(),
		Purpose:     purpose,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// GenerateAuthToken issues the session token returned by register and login.
func (s *JWTService) GenerateAuthToken(userID primitive.ObjectID) (string, error) {
	return s.sign(userID, PurposeAuth, "", s.authExpiry)
}

func (s *JWTService) GeneratePasswordResetToken(userID primitive.ObjectID, passwordHash string) (string, error) {
	return s.sign(userID, PurposePasswordReset, PasswordFingerprint(passwordHash), s.resetExpiry)
}

// ValidateToken checks signature, expiry and purpose. Every failure is ErrUnauthorized.
func (s *JWTService) ValidateToken(tokenStr, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, newError(ErrUnauthorized, "token has expired")
		}
		return nil, newError(ErrUnauthorized, "invalid token")
	}
	if claims.Purpose != purpose {
		return nil, newError(ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
