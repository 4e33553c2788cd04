package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Catalogo-api/pkg/config"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// DefaultPrefix prefijo de las claves del árbol cacheado.
const DefaultPrefix = "catalog:hierarchy:"

// NewClient abre un cliente Redis y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// HierarchyCache cache-aside para respuestas del árbol jerárquico.
// Los fallos de Redis solo se registran: la petición siempre se resuelve con el loader.
type HierarchyCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	group  singleflight.Group
	log    *logger.Logger
}

// NewHierarchyCache construye la caché. ttl <= 0 usa 5 minutos.
func NewHierarchyCache(client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *HierarchyCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &HierarchyCache{client: client, prefix: DefaultPrefix, ttl: ttl, log: log}
}

// Claves bajo el prefijo: "gen" guarda la generación vigente y los árboles viven en
// "data:<gen>:<key>". Invalidate incrementa la generación, así un loader que termina después
// escribe en una generación que ya nadie lee.
const (
	genKey     = "gen"
	dataPrefix = "data:"
)

func (c *HierarchyCache) dataKey(gen int64, key string) string {
	return fmt.Sprintf("%s%s%d:%s", c.prefix, dataPrefix, gen, key)
}

// generation lee la generación vigente; 0 si nunca se invalidó.
func (c *HierarchyCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.prefix+genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetOrLoad decodifica en dest el valor cacheado bajo key. En un miss ejecuta loader una sola vez
// para todas las peticiones concurrentes con la misma clave y guarda el resultado.
func (c *HierarchyCache) GetOrLoad(ctx context.Context, key string, dest any, loader func(ctx context.Context) (any, error)) error {
	gen, err := c.generation(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("redis no disponible, lectura directa")
		val, loadErr := loader(ctx)
		if loadErr != nil {
			return loadErr
		}
		return remarshal(val, dest)
	}
	full := c.dataKey(gen, key)

	data, err := c.client.Get(ctx, full).Bytes()
	switch {
	case err == nil:
		if jerr := json.Unmarshal(data, dest); jerr == nil {
			return nil
		}
		c.log.Warn().Str("key", key).Msg("valor cacheado corrupto, se recarga")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("redis no disponible, lectura directa")
	}

	v, err, _ := c.group.Do(full, func() (any, error) {
		val, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		raw, mErr := json.Marshal(val)
		if mErr != nil {
			return nil, fmt.Errorf("serializar %s: %w", key, mErr)
		}
		if setErr := c.client.Set(ctx, full, raw, c.ttl).Err(); setErr != nil {
			c.log.Warn().Err(setErr).Str("key", key).Msg("no se pudo guardar en caché")
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dest)
}

func remarshal(val, dest any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate pasa a una nueva generación y borra los árboles guardados (SCAN + DEL por prefijo).
func (c *HierarchyCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.prefix+genKey).Err(); err != nil {
		return fmt.Errorf("incr %s%s: %w", c.prefix, genKey, err)
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+dataPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan %s%s*: %w", c.prefix, dataPrefix, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
