package security

import (
	"context"
	"fmt"
	"time"

	"forstream/configs"
	utils "forstream/pkg/utils"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims are the JWT claims carried by an API session token. The
// token alone is not enough to authenticate: its jti must still be present
// in Redis, which is what makes sign-out effective immediately.
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type SessionManager struct {
	redis      *redis.Client
	secret     []byte
	keyPrefix  string
	expiration time.Duration
}

func NewSessionManager(redisClient *redis.Client, config *configs.Config) *SessionManager {
	return &SessionManager{
		redis:      redisClient,
		secret:     []byte(config.Session.Secret),
		keyPrefix:  config.Session.Prefix,
		expiration: config.Session.Expiration,
	}
}

func (sm *SessionManager) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", sm.keyPrefix, sessionID)
}

// CreateSession issues a signed token for the user and registers its session
// id in Redis with the configured TTL.
func (sm *SessionManager) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	sessionID := uuid.NewString()
	now := time.Now()
	claims := &SessionClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       sessionID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	if err := sm.redis.Set(ctx, sm.sessionKey(sessionID), userID.String(), sm.expiration).Err(); err != nil {
		return "", fmt.Errorf("failed to register session: %w", err)
	}
	return token, nil
}

// ValidateSession checks the token signature and the session's presence in
// Redis, and slides the TTL forward on success.
func (sm *SessionManager) ValidateSession(ctx context.Context, tokenString string) (uuid.UUID, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return sm.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", utils.ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.ID == "" {
		return uuid.Nil, "", utils.ErrInvalidToken
	}

	storedUserID, err := sm.redis.Get(ctx, sm.sessionKey(claims.ID)).Result()
	if err == redis.Nil {
		return uuid.Nil, "", utils.ErrTokenExpired
	}
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to look up session: %w", err)
	}
	userID, err := uuid.Parse(storedUserID)
	if err != nil || userID.String() != claims.UserID {
		return uuid.Nil, "", utils.ErrInvalidToken
	}

	if err := sm.redis.Expire(ctx, sm.sessionKey(claims.ID), sm.expiration).Err(); err != nil {
		utils.Logger.Warnf("[Session %s] Failed to touch session TTL: %v", claims.ID, err)
	}
	return userID, claims.ID, nil
}

// DestroySession removes the session from Redis, invalidating every token
// that carries its id.
func (sm *SessionManager) DestroySession(ctx context.Context, sessionID string) error {
	if err := sm.redis.Del(ctx, sm.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
