package kv

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compressed wraps a Store and zstd-compresses every value it writes.
// Values read back are decompressed transparently, so callers see the original bytes.
type Compressed struct {
	inner Store
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressed returns a Store that compresses values before handing them to inner.
// Data written without compression cannot be read through the wrapper.
func NewCompressed(inner Store) (*Compressed, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, fmt.Errorf("new compressed store: encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("new compressed store: decoder: %w", err)
	}

	return &Compressed{inner: inner, enc: enc, dec: dec}, nil
}

func (c *Compressed) Put(ctx context.Context, primaryKey, secondaryKey string, value []byte) error {
	if err := ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}
	return c.inner.Put(ctx, primaryKey, secondaryKey, c.enc.EncodeAll(value, nil))
}

func (c *Compressed) Get(ctx context.Context, primaryKey, secondaryKey string) ([]byte, bool, error) {
	raw, ok, err := c.inner.Get(ctx, primaryKey, secondaryKey)
	if err != nil || !ok {
		return nil, ok, err
	}

	value, err := c.decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", primaryKey, secondaryKey, err)
	}
	return value, true, nil
}

func (c *Compressed) Query(ctx context.Context, primaryKey string) ([][]byte, error) {
	raws, err := c.inner.Query(ctx, primaryKey)
	if err != nil {
		return nil, err
	}

	values := make([][]byte, 0, len(raws))
	for _, raw := range raws {
		value, decErr := c.decode(raw)
		if decErr != nil {
			return nil, fmt.Errorf("query %s: %w", primaryKey, decErr)
		}
		values = append(values, value)
	}
	return values, nil
}

func (c *Compressed) Del(ctx context.Context, primaryKey, secondaryKey string) error {
	return c.inner.Del(ctx, primaryKey, secondaryKey)
}

// Close releases the encoder and decoder resources.
func (c *Compressed) Close() error {
	c.dec.Close()
	return c.enc.Close()
}

func (c *Compressed) decode(raw []byte) ([]byte, error) {
	value, err := c.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}
