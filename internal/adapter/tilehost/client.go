// Package tilehost fetches raster tile manifests and tiles over HTTP.
// Bodies are JSON, optionally zstd-compressed. Compression is detected from
// the zstd frame magic, not from response headers.
package tilehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/klauspost/compress/zstd"

	"github.com/couchcryptid/stellaview/internal/adapter/upstream"
	"github.com/couchcryptid/stellaview/internal/domain"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Client implements domain.TileSource against {base}/{layer}/manifest.json
// and {base}/{layer}/{id}.json.
type Client struct {
	baseURL string
	client  *upstream.Client
	decoder *zstd.Decoder
}

// NewClient creates a tile host client rooted at baseURL.
func NewClient(baseURL string, client *upstream.Client) (*Client, error) {
	// DecodeAll is safe for concurrent use on a single decoder.
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Client{baseURL: baseURL, client: client, decoder: dec}, nil
}

// Close releases the decoder.
func (c *Client) Close() {
	c.decoder.Close()
}

// Manifest lists the tile ids available for layer.
func (c *Client) Manifest(ctx context.Context, layer domain.Layer) ([]string, error) {
	var m struct {
		Tiles []string `json:"tiles"`
	}
	if err := c.fetch(ctx, c.url(layer, "manifest.json"), &m); err != nil {
		return nil, fmt.Errorf("%s manifest: %w", layer, err)
	}
	return m.Tiles, nil
}

// Tile fetches one tile. Validation of the grid is left to the caller.
func (c *Client) Tile(ctx context.Context, layer domain.Layer, id string) (domain.Tile, error) {
	var t domain.Tile
	if err := c.fetch(ctx, c.url(layer, id+".json"), &t); err != nil {
		return domain.Tile{}, fmt.Errorf("%s tile %s: %w", layer, id, err)
	}
	if t.ID == "" {
		t.ID = id
	}
	return t, nil
}

func (c *Client) url(layer domain.Layer, name string) string {
	return c.baseURL + "/" + url.PathEscape(string(layer)) + "/" + url.PathEscape(name)
}

func (c *Client) fetch(ctx context.Context, u string, v any) error {
	body, err := c.client.Get(ctx, u)
	if err != nil {
		return err
	}
	if bytes.HasPrefix(body, zstdMagic) {
		body, err = c.decoder.DecodeAll(body, nil)
		if err != nil {
			return fmt.Errorf("decompress: %w", err)
		}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
