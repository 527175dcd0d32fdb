package layout

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	zstdpool "github.com/mostynb/zstdpool-freelist"
)

// chunk compression is wired to zstd via pooled encoders/decoders, the same
// idiom gsfa/linkedlog/compress.go uses for its block compression (teacher).
var (
	zstdDecoderPool = zstdpool.NewDecoderPool()
	zstdEncoderPool = zstdpool.NewEncoderPool(
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
)

func compressZSTD(data []byte) ([]byte, error) {
	enc, err := zstdEncoderPool.Get(nil)
	if err != nil {
		return nil, fmt.Errorf("layout: get zstd encoder: %w", err)
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func decompressZSTD(data []byte, expectedLen int) ([]byte, error) {
	dec, err := zstdDecoderPool.Get(nil)
	if err != nil {
		return nil, fmt.Errorf("layout: get zstd decoder: %w", err)
	}
	defer zstdDecoderPool.Put(dec)
	out, err := dec.DecodeAll(data, make([]byte, 0, expectedLen))
	if err != nil {
		return nil, fmt.Errorf("layout: zstd decompress: %w", err)
	}
	return out, nil
}
