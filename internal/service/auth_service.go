package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sprinthub/internal/apperr"
	"sprinthub/internal/model"
	"sprinthub/internal/util"
)

const actorCacheTTL = 5 * time.Minute

// AuthService issues tokens and resolves them back into actors. The
// user-id → role lookup sits on every request, so it is cached in
// redis with a short TTL and invalidated on user mutations.
type AuthService struct {
	users     UserStore
	rdb       *redis.Client
	jwtSecret string
	log       *zap.Logger
}

func NewAuthService(users UserStore, rdb *redis.Client, jwtSecret string, log *zap.Logger) *AuthService {
	return &AuthService{users: users, rdb: rdb, jwtSecret: jwtSecret, log: log}
}

// Login checks credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", apperr.Authorization("Invalid email or password.")
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		return "", apperr.Authorization("Invalid email or password.")
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		return "", apperr.Persistence("failed to sign token", err)
	}
	return token, nil
}

// ParseToken extracts the user id from a bearer token.
func (s *AuthService) ParseToken(tokenStr string) (int, error) {
	userID, err := util.ParseJWT(tokenStr, s.jwtSecret)
	if err != nil {
		return 0, apperr.Authorization("Invalid or expired token.")
	}
	return userID, nil
}

type cachedActor struct {
	Role     model.Role `json:"role"`
	IsActive bool       `json:"is_active"`
}

func actorCacheKey(userID int) string {
	return fmt.Sprintf("actor:%d", userID)
}

// ResolveActor turns a user id into the ActorContext threaded through
// the core, via the redis cache when possible.
func (s *AuthService) ResolveActor(ctx context.Context, userID int) (model.Actor, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, actorCacheKey(userID)).Result(); err == nil {
			var c cachedActor
			if err := json.Unmarshal([]byte(raw), &c); err == nil {
				if !c.IsActive {
					return model.Actor{}, apperr.Authorization("Account is inactive.")
				}
				return model.Actor{ID: userID, Role: c.Role}, nil
			}
		}
	}

	u, err := s.users.GetByID(ctx, userID, false)
	if err != nil {
		return model.Actor{}, apperr.Authorization("Unknown or deleted account.")
	}
	if !u.IsActive {
		return model.Actor{}, apperr.Authorization("Account is inactive.")
	}

	if s.rdb != nil {
		raw, _ := json.Marshal(cachedActor{Role: u.Role, IsActive: u.IsActive})
		if err := s.rdb.Set(ctx, actorCacheKey(userID), raw, actorCacheTTL).Err(); err != nil {
			s.log.Warn("Failed to cache actor", zap.Int("user_id", userID), zap.Error(err))
		}
	}
	return model.Actor{ID: u.ID, Role: u.Role}, nil
}

// InvalidateActor drops the cached role after a user mutation.
func (s *AuthService) InvalidateActor(ctx context.Context, userID int) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, actorCacheKey(userID)).Err(); err != nil {
		s.log.Warn("Failed to invalidate actor cache", zap.Int("user_id", userID), zap.Error(err))
	}
}
