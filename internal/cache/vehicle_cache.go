package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/torque-rentals/service-rental/internal/domain/vehicle"
)

const defaultListTTL = 5 * time.Minute

// VehicleCache caches paginated vehicle listings in Redis. A nil
// *VehicleCache is valid and behaves as a disabled cache, so callers
// never need to branch on whether caching is configured.
type VehicleCache struct {
	client  *redis.Client
	listTTL time.Duration
}

// NewVehicleCache creates a VehicleCache backed by the given Redis address.
// An empty addr returns nil, which disables caching.
func NewVehicleCache(addr, password string, db int) *VehicleCache {
	if addr == "" {
		return nil
	}
	return &VehicleCache{
		client:  redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		listTTL: defaultListTTL,
	}
}

type vehicleRecord struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Type                string    `json:"type"`
	RegistrationNumber  string    `json:"registration_number"`
	DailyRentPriceCents int64     `json:"daily_rent_price_cents"`
	AvailabilityStatus  string    `json:"availability_status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type vehiclePage struct {
	Items []vehicleRecord `json:"items"`
	Total int64           `json:"total"`
}

// GetList returns a cached vehicle page. The bool reports a cache hit;
// a miss or disabled cache returns (nil, 0, false, nil).
func (c *VehicleCache) GetList(ctx context.Context, page, limit int) ([]*vehicle.Vehicle, int64, bool, error) {
	if c == nil {
		return nil, 0, false, nil
	}
	data, err := c.client.Get(ctx, listKey(page, limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}

	var cached vehiclePage
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, 0, false, err
	}

	vehicles := make([]*vehicle.Vehicle, len(cached.Items))
	for i, rec := range cached.Items {
		vehicles[i] = vehicle.ReconstructVehicle(
			rec.ID,
			rec.Name,
			vehicle.VehicleType(rec.Type),
			rec.RegistrationNumber,
			rec.DailyRentPriceCents,
			vehicle.AvailabilityStatus(rec.AvailabilityStatus),
			rec.CreatedAt,
			rec.UpdatedAt,
		)
	}
	return vehicles, cached.Total, true, nil
}

// SetList stores a vehicle page under the page/limit key.
func (c *VehicleCache) SetList(ctx context.Context, page, limit int, vehicles []*vehicle.Vehicle, total int64) error {
	if c == nil {
		return nil
	}
	cached := vehiclePage{Items: make([]vehicleRecord, len(vehicles)), Total: total}
	for i, v := range vehicles {
		cached.Items[i] = vehicleRecord{
			ID:                  v.ID(),
			Name:                v.Name(),
			Type:                string(v.Type()),
			RegistrationNumber:  v.RegistrationNumber(),
			DailyRentPriceCents: v.DailyRentPriceCents(),
			AvailabilityStatus:  string(v.Availability()),
			CreatedAt:           v.CreatedAt(),
			UpdatedAt:           v.UpdatedAt(),
		}
	}
	payload, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listKey(page, limit), payload, c.listTTL).Err()
}

// Invalidate drops all cached vehicle pages. Called after any write that
// changes catalog fields or availability.
func (c *VehicleCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, "cache:vehicles:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Close releases the underlying Redis connection.
func (c *VehicleCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func listKey(page, limit int) string {
	return fmt.Sprintf("cache:vehicles:%d:%d", page, limit)
}
