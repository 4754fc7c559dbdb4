package venue

import (
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/halcyonex/routerd/internal/core/types"
)

// Quote metadata crosses the router/composer boundary as a tagged variant:
// a venue-kind tag plus a CBOR-encoded payload only the owning adapter
// decodes. The router reads neither.

var cborHandle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}()

// encodePayload serializes an adapter's metadata under its kind tag.
func encodePayload(kind string, v any) (types.QuotePayload, error) {
	var raw []byte
	if err := codec.NewEncoderBytes(&raw, cborHandle).Encode(v); err != nil {
		return types.QuotePayload{}, fmt.Errorf("venue: encode %s metadata: %w", kind, err)
	}
	return types.QuotePayload{MetadataKind: kind, Metadata: raw}, nil
}

// decodePayload deserializes metadata, checking the kind tag belongs to the
// calling adapter.
func decodePayload(p types.QuotePayload, kind string, v any) error {
	if p.MetadataKind != kind {
		return fmt.Errorf("venue: metadata kind %q does not belong to %q", p.MetadataKind, kind)
	}
	if err := codec.NewDecoderBytes(p.Metadata, cborHandle).Decode(v); err != nil {
		return fmt.Errorf("venue: decode %s metadata: %w", kind, err)
	}
	return nil
}
