package repository

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/metrics"
)

// DefaultCompressionLevel is the zstd level used when none is configured.
const DefaultCompressionLevel = 3

// record is the unit written to a Backend. Seq orders records by recency so
// Load can rebuild the retained set.
type record struct {
	Seq      uint64          `json:"seq"`
	Timeline *model.Timeline `json:"timeline"`
}

// Codec turns records into compact blobs: JSON compressed with zstd.
// A Codec is safe for concurrent use.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec creates a codec at the given zstd level (1 fastest .. 22 best).
func NewCodec(level int) (*Codec, error) {
	if level <= 0 {
		level = DefaultCompressionLevel
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("repository.codec: encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("repository.codec: decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

func (c *Codec) encode(r record) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("repository.codec: marshal: %w", err)
	}
	blob := c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))
	if len(raw) > 0 {
		metrics.RecordCompressionRatio(float64(len(blob)) / float64(len(raw)))
	}
	return blob, nil
}

func (c *Codec) decode(blob []byte) (record, error) {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return record{}, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return record{}, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	if r.Timeline == nil || r.Timeline.ID == "" {
		return record{}, fmt.Errorf("%w: missing timeline", ErrCorruptBlob)
	}
	return r, nil
}

// Close releases the encoder and decoder resources.
func (c *Codec) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}
