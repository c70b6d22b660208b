package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/noteboard/internal/model"
)

// Claims represents JWT claims with token type, user ID and, for verification
// tokens, the email address being verified.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
	now       func() time.Time
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string) model.TokenManager {
	return &JWT{secretKey: secretKey, now: time.Now}
}

const (
	typeSession      = "session"
	typeVerification = "verify"
)

// GenerateSessionToken creates a session token and returns its JTI and expiry.
func (j *JWT) GenerateSessionToken(userID uuid.UUID) (string, string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(model.SessionTTL)
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    userID,
		TokenType: typeSession,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, jti, expiresAt, nil
}

// ParseSessionToken validates a session token and extracts the user ID and JTI.
func (j *JWT) ParseSessionToken(tokenString string) (uuid.UUID, string, error) {
	claims, err := j.parse(tokenString, typeSession)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to parse session token: %w", err)
	}
	return claims.UserID, claims.ID, nil
}

// GenerateVerificationToken creates a token for the email verification link.
func (j *JWT) GenerateVerificationToken(userID uuid.UUID, email string) (string, string, error) {
	now := j.now()
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(model.VerificationTTL)),
		},
		UserID:    userID,
		Email:     email,
		TokenType: typeVerification,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign verification token: %w", err)
	}

	return tokenString, jti, nil
}

// ParseVerificationToken validates a verification token.
func (j *JWT) ParseVerificationToken(tokenString string) (uuid.UUID, string, string, error) {
	claims, err := j.parse(tokenString, typeVerification)
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("failed to parse verification token: %w", err)
	}
	return claims.UserID, claims.Email, claims.ID, nil
}

func (j *JWT) parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	return claims, nil
}
