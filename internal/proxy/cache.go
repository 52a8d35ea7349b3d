package proxy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	platformredis "patchdesk/internal/platform/redis"
)

// Document is a fetched upstream document plus the metadata needed to serve
// it again.
type Document struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
	Body        []byte `json:"body"`
}

// Cache stores fetched documents in Redis with the same TTL the browser gets
// via Cache-Control, so both layers expire together.
type Cache struct {
	client *platformredis.Client
	logger *slog.Logger
}

func NewCache(client *platformredis.Client, logger *slog.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "proxy:doc:" + hex.EncodeToString(sum[:])
}

// Get returns a cached document, or false on miss or any cache error. Cache
// failures never fail the request.
func (c *Cache) Get(ctx context.Context, url string) (*Document, bool) {
	raw, err := c.client.Get(ctx, cacheKey(url)).Bytes()
	if err != nil {
		return nil, false
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.logger.Warn("dropping undecodable cached document", "error", err)
		c.client.Del(ctx, cacheKey(url))
		return nil, false
	}
	return &doc, true
}

// Put stores the document, best effort.
func (c *Cache) Put(ctx context.Context, url string, doc *Document) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(url), raw, cacheMaxAge).Err(); err != nil {
		c.logger.Warn("proxy cache write failed", "error", err)
	}
}
