package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"nhl_wp/pipeline/internal/models"
)

const (
	keyFeatureTable = "features:latest"
	keyBuildReport  = "features:report"
)

// Config holds Redis configuration
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisCache caches the latest assembled feature table so prediction-day
// consumers can read it without touching the database.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(cfg Config, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Msg("Successfully connected to Redis")

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if c.client != nil {
		log.Info().Msg("Redis connection closed")
		return c.client.Close()
	}
	return nil
}

// cachedRow is the wire form of one feature row. NaN is not representable in
// JSON, so values travel as nullable pointers keyed by column name.
type cachedRow struct {
	GameID   string              `json:"gameId"`
	Date     time.Time           `json:"date"`
	HomeTeam string              `json:"homeTeam"`
	AwayTeam string              `json:"awayTeam"`
	HomeWin  *bool               `json:"homeWin,omitempty"`
	Features map[string]*float64 `json:"features"`
}

type cachedTable struct {
	Columns []string    `json:"columns"`
	Rows    []cachedRow `json:"rows"`
	BuiltAt time.Time   `json:"builtAt"`
}

// SetFeatureTable stores the latest feature table
func (c *RedisCache) SetFeatureTable(ctx context.Context, t *models.FeatureTable) error {
	ct := cachedTable{
		Columns: t.Columns,
		Rows:    make([]cachedRow, 0, len(t.Rows)),
		BuiltAt: time.Now().UTC(),
	}
	for i := range t.Rows {
		row := &t.Rows[i]
		cr := cachedRow{
			GameID:   row.GameID,
			Date:     row.Date,
			HomeTeam: row.HomeTeam,
			AwayTeam: row.AwayTeam,
			Features: make(map[string]*float64, len(t.Columns)),
		}
		if row.HomeWin.Valid {
			v := row.HomeWin.Bool
			cr.HomeWin = &v
		}
		for ci, col := range t.Columns {
			if math.IsNaN(row.Values[ci]) {
				cr.Features[col] = nil
				continue
			}
			v := row.Values[ci]
			cr.Features[col] = &v
		}
		ct.Rows = append(ct.Rows, cr)
	}

	payload, err := json.Marshal(ct)
	if err != nil {
		return fmt.Errorf("failed to encode feature table: %w", err)
	}

	if err := c.client.Set(ctx, keyFeatureTable, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache feature table: %w", err)
	}

	log.Debug().
		Int("rows", len(ct.Rows)).
		Msg("Feature table cached")

	return nil
}

// GetFeatureTable reads the cached feature table. Returns redis.Nil wrapped
// when the cache is cold.
func (c *RedisCache) GetFeatureTable(ctx context.Context) (*models.FeatureTable, error) {
	payload, err := c.client.Get(ctx, keyFeatureTable).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached feature table: %w", err)
	}

	var ct cachedTable
	if err := json.Unmarshal(payload, &ct); err != nil {
		return nil, fmt.Errorf("failed to decode cached feature table: %w", err)
	}

	t := &models.FeatureTable{Columns: ct.Columns, Rows: make([]models.FeatureRow, 0, len(ct.Rows))}
	for _, cr := range ct.Rows {
		row := models.FeatureRow{
			GameID:   cr.GameID,
			Date:     cr.Date,
			HomeTeam: cr.HomeTeam,
			AwayTeam: cr.AwayTeam,
			Values:   make([]float64, len(ct.Columns)),
		}
		if cr.HomeWin != nil {
			row.HomeWin.Valid = true
			row.HomeWin.Bool = *cr.HomeWin
		}
		for ci, col := range ct.Columns {
			v, ok := cr.Features[col]
			if !ok || v == nil {
				row.Values[ci] = math.NaN()
				continue
			}
			row.Values[ci] = *v
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// SetBuildReport stores the quality counters of the latest build
func (c *RedisCache) SetBuildReport(ctx context.Context, report interface{}) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode build report: %w", err)
	}
	if err := c.client.Set(ctx, keyBuildReport, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache build report: %w", err)
	}
	return nil
}

// Health checks the Redis connection
func (c *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
