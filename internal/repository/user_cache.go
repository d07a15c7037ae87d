package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/domain"
)

const (
	userCacheByIDPrefix      = "user:id:"
	userCacheBySubjectPrefix = "user:subject:"
	userCacheGenSuffix       = ":gen"

	minGenerationTTL = time.Minute
)

// errStaleRead marks a database read that a concurrent write overtook.
var errStaleRead = errors.New("user cache: stale read")

// cachedUser is the Redis representation of a user. Password hashes are never cached, so
// callers that need them must read through the underlying repository.
type cachedUser struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CachedUserRepository is a read-through Redis cache in front of a UserRepository.
// Lookups by id and subject are cached; every write invalidates both keys and bumps a
// generation counter per key. A miss only fills the cache if the generation it saw before
// reading the database is unchanged, so a slow read cannot re-cache a row that a write
// (for example a deactivation) already replaced.
type CachedUserRepository struct {
	next   UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps next. A nil client or a non-positive ttl disables caching.
func NewCachedUserRepository(next UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedUserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedUserRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *CachedUserRepository) enabled() bool {
	return r.client != nil && r.ttl > 0
}

func (r *CachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.next.Create(ctx, user)
}

func (r *CachedUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := r.next.Update(ctx, user); err != nil {
		return err
	}
	r.invalidate(ctx, user.ID, user.Subject)
	return nil
}

func (r *CachedUserRepository) SetPassword(ctx context.Context, id string, hash string) error {
	if err := r.next.SetPassword(ctx, id, hash); err != nil {
		return err
	}
	r.invalidate(ctx, id, "")
	return nil
}

func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	existing, _ := r.next.GetByID(ctx, id)
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	subject := ""
	if existing != nil {
		subject = existing.Subject
	}
	r.invalidate(ctx, id, subject)
	return nil
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.readThrough(ctx, userCacheByIDPrefix+id, func() (*domain.User, error) {
		return r.next.GetByID(ctx, id)
	})
}

func (r *CachedUserRepository) GetBySubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.readThrough(ctx, userCacheBySubjectPrefix+subject, func() (*domain.User, error) {
		return r.next.GetBySubject(ctx, subject)
	})
}

func (r *CachedUserRepository) readThrough(ctx context.Context, key string, fetch func() (*domain.User, error)) (*domain.User, error) {
	if user, ok := r.load(ctx, key); ok {
		return user, nil
	}
	gen, ok := r.generation(ctx, key)
	user, err := fetch()
	if err != nil {
		return nil, err
	}
	if ok {
		r.store(ctx, key, gen, user)
	}
	return user, nil
}

func (r *CachedUserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	return r.next.List(ctx, filter)
}

// load returns a cached user. Cache errors are treated as misses.
func (r *CachedUserRepository) load(ctx context.Context, key string) (*domain.User, bool) {
	if !r.enabled() {
		return nil, false
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("user cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var entry cachedUser
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.logger.Warn("user cache entry corrupt", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, false
	}
	role, err := domain.ParseRole(entry.Role)
	if err != nil {
		_ = r.client.Del(ctx, key).Err()
		return nil, false
	}
	return &domain.User{
		ID:        entry.ID,
		Subject:   entry.Subject,
		Email:     entry.Email,
		FirstName: entry.FirstName,
		LastName:  entry.LastName,
		Role:      role,
		Active:    entry.Active,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}, true
}

// generation reads the write counter for key. ok is false when the cache is off or
// unreadable, in which case nothing may be stored.
func (r *CachedUserRepository) generation(ctx context.Context, key string) (string, bool) {
	if !r.enabled() {
		return "", false
	}
	gen, err := r.client.Get(ctx, key+userCacheGenSuffix).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		return "", false
	default:
		return gen, true
	}
}

// store caches user under both keys, unless the generation of watched moved past gen.
func (r *CachedUserRepository) store(ctx context.Context, watched, gen string, user *domain.User) {
	if !r.enabled() || user == nil {
		return
	}
	payload, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Subject:   user.Subject,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return
	}
	genKey := watched + userCacheGenSuffix
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if errors.Is(err, redis.Nil) {
			current = "0"
		} else if err != nil {
			return err
		}
		if current != gen {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userCacheByIDPrefix+user.ID, payload, r.ttl)
			pipe.Set(ctx, userCacheBySubjectPrefix+user.Subject, payload, r.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleRead), errors.Is(err, redis.TxFailedErr):
		r.logger.Debug("user cache fill skipped after concurrent write", zap.String("user_id", user.ID))
	default:
		r.logger.Warn("user cache write failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id, subject string) {
	if r.client == nil {
		return
	}
	keys := []string{userCacheByIDPrefix + id}
	if subject != "" {
		keys = append(keys, userCacheBySubjectPrefix+subject)
	} else if raw, err := r.client.Get(ctx, userCacheByIDPrefix+id).Bytes(); err == nil {
		var entry cachedUser
		if json.Unmarshal(raw, &entry) == nil && entry.Subject != "" {
			keys = append(keys, userCacheBySubjectPrefix+entry.Subject)
		}
	}

	genTTL := r.ttl
	if genTTL < minGenerationTTL {
		genTTL = minGenerationTTL
	}
	pipe := r.client.TxPipeline()
	for _, key := range keys {
		pipe.Incr(ctx, key+userCacheGenSuffix)
		pipe.Expire(ctx, key+userCacheGenSuffix, genTTL)
	}
	pipe.Del(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("user cache invalidation failed", zap.String("user_id", id), zap.Error(err))
	}
}
