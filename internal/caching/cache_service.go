package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"luthier/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Instrument caching
	GetInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.Instrument, error)
	SetInstrument(ctx context.Context, tenantID uuid.UUID, instrument *models.Instrument, ttl time.Duration) error
	DeleteInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) error

	// Client caching
	GetClient(ctx context.Context, tenantID, clientID uuid.UUID) (*models.Client, error)
	SetClient(ctx context.Context, tenantID uuid.UUID, client *models.Client, ttl time.Duration) error
	DeleteClient(ctx context.Context, tenantID, clientID uuid.UUID) error

	// Dashboard analytics caching
	GetDashboard(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error)
	SetDashboard(ctx context.Context, tenantID uuid.UUID, dashboard map[string]interface{}, ttl time.Duration) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	// Session management
	SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept both host:port and redis://host:port forms
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.Instrument, error) {
	key := fmt.Sprintf("luthier:instrument:%s:%s", tenantID.String(), instrumentID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var instrument models.Instrument
	if err := json.Unmarshal(data, &instrument); err != nil {
		return nil, err
	}
	return &instrument, nil
}

func (r *redisCacheService) SetInstrument(ctx context.Context, tenantID uuid.UUID, instrument *models.Instrument, ttl time.Duration) error {
	key := fmt.Sprintf("luthier:instrument:%s:%s", tenantID.String(), instrument.ID.String())
	data, err := json.Marshal(instrument)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) error {
	key := fmt.Sprintf("luthier:instrument:%s:%s", tenantID.String(), instrumentID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetClient(ctx context.Context, tenantID, clientID uuid.UUID) (*models.Client, error) {
	key := fmt.Sprintf("luthier:client:%s:%s", tenantID.String(), clientID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var client models.Client
	if err := json.Unmarshal(data, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *redisCacheService) SetClient(ctx context.Context, tenantID uuid.UUID, client *models.Client, ttl time.Duration) error {
	key := fmt.Sprintf("luthier:client:%s:%s", tenantID.String(), client.ID.String())
	data, err := json.Marshal(client)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteClient(ctx context.Context, tenantID, clientID uuid.UUID) error {
	key := fmt.Sprintf("luthier:client:%s:%s", tenantID.String(), clientID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetDashboard(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error) {
	key := fmt.Sprintf("luthier:dashboard:%s", tenantID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var dashboard map[string]interface{}
	if err := json.Unmarshal(data, &dashboard); err != nil {
		return nil, err
	}
	return dashboard, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, tenantID uuid.UUID, dashboard map[string]interface{}, ttl time.Duration) error {
	key := fmt.Sprintf("luthier:dashboard:%s", tenantID.String())
	data, err := json.Marshal(dashboard)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("luthier:*:%s*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	key := fmt.Sprintf("luthier:session:%s", sessionID)
	return r.client.Set(ctx, key, userID, ttl).Err()
}

func (r *redisCacheService) GetSession(ctx context.Context, sessionID string) (string, error) {
	key := fmt.Sprintf("luthier:session:%s", sessionID)
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // not found
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) DeleteSession(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf("luthier:session:%s", sessionID)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
