package llmclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingClient memoizes text and JSON responses keyed by a digest of the
// request. Image generation is never cached: each design round must
// produce fresh variants.
type CachingClient struct {
	inner Client
	texts *lru.Cache[string, string]
	jsons *lru.Cache[string, json.RawMessage]
}

// WithCache wraps inner with an LRU of the given size per response kind.
func WithCache(inner Client, size int) (*CachingClient, error) {
	if size <= 0 {
		size = 256
	}
	texts, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	jsons, err := lru.New[string, json.RawMessage](size)
	if err != nil {
		return nil, err
	}
	return &CachingClient{inner: inner, texts: texts, jsons: jsons}, nil
}

func (c *CachingClient) GenerateText(ctx context.Context, parts []Part) (string, error) {
	key := digest("text", parts, nil)
	if v, ok := c.texts.Get(key); ok {
		return v, nil
	}
	v, err := c.inner.GenerateText(ctx, parts)
	if err != nil {
		return "", err
	}
	c.texts.Add(key, v)
	return v, nil
}

func (c *CachingClient) GenerateJSON(ctx context.Context, parts []Part, schema *Schema) (json.RawMessage, error) {
	key := digest("json", parts, schema)
	if v, ok := c.jsons.Get(key); ok {
		return v, nil
	}
	v, err := c.inner.GenerateJSON(ctx, parts, schema)
	if err != nil {
		return nil, err
	}
	c.jsons.Add(key, v)
	return v, nil
}

func (c *CachingClient) GenerateImage(ctx context.Context, parts []Part) (*Blob, error) {
	return c.inner.GenerateImage(ctx, parts)
}

func digest(kind string, parts []Part, schema *Schema) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", kind)
	for _, p := range parts {
		fmt.Fprintf(h, "t:%s\n", p.Text)
		if p.Inline != nil {
			fmt.Fprintf(h, "i:%s:%d:", p.Inline.MIMEType, len(p.Inline.Data))
			h.Write(p.Inline.Data)
			h.Write([]byte{'\n'})
		}
	}
	if schema != nil {
		b, _ := json.Marshal(schemaKey(schema))
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// schemaKey flattens a Schema into a deterministic shape for hashing.
func schemaKey(s *Schema) map[string]any {
	if s == nil {
		return nil
	}
	m := map[string]any{"type": s.Type}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	if s.Items != nil {
		m["items"] = schemaKey(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for k, v := range s.Properties {
			props[k] = schemaKey(v)
		}
		m["properties"] = props
	}
	return m
}
