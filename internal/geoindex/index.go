// Package geoindex keeps live driver positions in a Redis GEO set so the
// dispatcher can ask for nearest-first candidates.
package geoindex

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quicklift/internal/config"
	"quicklift/internal/domain/geo"
)

const driverGeoKey = "dispatch:drivers:geo"

type Index struct {
	redis *redis.Client
}

func New(client *redis.Client) *Index {
	return &Index{redis: client}
}

// Connect builds a Redis client from config and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*Index, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client), nil
}

func (idx *Index) Close() error {
	return idx.redis.Close()
}

func (idx *Index) Upsert(ctx context.Context, driverID string, location geo.Coordinate) error {
	return idx.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: location.Longitude,
		Latitude:  location.Latitude,
	}).Err()
}

func (idx *Index) Remove(ctx context.Context, driverID string) error {
	return idx.redis.ZRem(ctx, driverGeoKey, driverID).Err()
}

// Nearby returns driver ids within radiusKM of center, closest first.
func (idx *Index) Nearby(ctx context.Context, center geo.Coordinate, radiusKM float64, limit int) ([]string, error) {
	results, err := idx.redis.GeoSearch(ctx, driverGeoKey, &redis.GeoSearchQuery{
		Longitude:  center.Longitude,
		Latitude:   center.Latitude,
		Radius:     radiusKM,
		RadiusUnit: "km",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(results))
	copy(ids, results)
	return ids, nil
}
