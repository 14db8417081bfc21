package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
)

type CachedResponse struct {
	Hash      string    `json:"hash"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache stores model responses as JSON files keyed by a content hash.
type Cache struct {
	cacheDir string
	ttl      time.Duration
	now      func() time.Time
}

func NewCache(cacheDir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return nil, fmt.Errorf("error creating cache directory: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// GenerateHash returns the SHA-256 of the given parts.
func (c *Cache) GenerateHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) Get(hash string) (string, bool, error) {
	filePath := filepath.Join(c.cacheDir, hash+".json")

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error reading cache: %w", err)
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return "", false, fmt.Errorf("error decoding cache entry: %w", err)
	}

	if c.now().Sub(cached.CreatedAt) > c.ttl {
		_ = os.Remove(filePath)
		return "", false, nil
	}

	return cached.Response, true, nil
}

func (c *Cache) Set(hash, response string) error {
	data, err := json.MarshalIndent(CachedResponse{
		Hash:      hash,
		Response:  response,
		CreatedAt: c.now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding cache entry: %w", err)
	}

	filePath := filepath.Join(c.cacheDir, hash+".json")
	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return fmt.Errorf("error writing cache: %w", err)
	}
	return nil
}

// CleanExpired removes entries older than the TTL.
func (c *Cache) CleanExpired() error {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return fmt.Errorf("error reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if c.now().Sub(info.ModTime()) > c.ttl {
			_ = os.Remove(filepath.Join(c.cacheDir, entry.Name()))
		}
	}
	return nil
}

// Generator answers repeated prompts from the cache. The API key is not part
// of the key, so a response is shared by everyone grading the same code.
type Generator struct {
	next  ports.TextGenerator
	cache *Cache
	model string
}

func NewGenerator(next ports.TextGenerator, cache *Cache, model string) *Generator {
	return &Generator{
		next:  next,
		cache: cache,
		model: model,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	hash := g.cache.GenerateHash(g.model, prompt)

	if cached, found, err := g.cache.Get(hash); err != nil {
		logger.Warn(ctx, "could not read cached evaluation", "error", err)
	} else if found {
		logger.Debug(ctx, "evaluation served from cache", "hash", hash[:12])
		return cached, nil
	}

	text, err := g.next.Generate(ctx, prompt, apiKey)
	if err != nil {
		return "", err
	}

	if err := g.cache.Set(hash, text); err != nil {
		logger.Warn(ctx, "could not cache evaluation", "error", err)
	}
	return text, nil
}
