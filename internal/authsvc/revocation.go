// internal/authsvc/revocation.go
package authsvc

import (
	"context"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "token:revoked:"

// RevocationList tracks logged-out token IDs in Redis. Entries expire
// with the token itself, so the list stays bounded.
type RevocationList struct {
	client *redis.Client
	logger logger.Logger
}

func NewRevocationList(client *redis.Client, log logger.Logger) *RevocationList {
	return &RevocationList{
		client: client,
		logger: log.Named("revocation"),
	}
}

// Revoke marks the token ID revoked for the remaining token lifetime.
func (r *RevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing to track.
		return nil
	}

	if err := r.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return errors.NewCacheOperationFailedError("revoke token", err)
	}

	r.logger.Info("Token revoked", map[string]interface{}{
		"jti": jti,
	})
	return nil
}

// IsRevoked reports whether the token ID has been revoked.
func (r *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := r.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, errors.NewCacheOperationFailedError("check token revocation", err)
	}
	return count > 0, nil
}
