package protocol

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/gjson"
)

// Codec converts messages to and from wire bytes.
type Codec interface {
	Name() string
	Decode(data []byte, msg *Message) error
	Encode(resp Response) ([]byte, error)
	// PeekSeq extracts the seq of a message that failed to decode, so the
	// error response can still be matched by the host.
	PeekSeq(data []byte) int64
}

// JSONCodec is the text codec used by newline-delimited streams and
// websocket text frames.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Decode(data []byte, msg *Message) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformedRequest)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return nil
}

func (JSONCodec) Encode(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func (JSONCodec) PeekSeq(data []byte) int64 {
	seq := gjson.GetBytes(data, "seq")
	if seq.Type != gjson.Number {
		return 0
	}
	return seq.Int()
}

// CBORCodec is the binary codec used by websocket binary frames.
type CBORCodec struct {
	dec cbor.DecMode
	enc cbor.EncMode
}

// NewCBORCodec decodes nested maps with string keys so payloads share the
// JSON validation path.
func NewCBORCodec() (*CBORCodec, error) {
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR decoder: %w", err)
	}
	enc, err := cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	return &CBORCodec{dec: dec, enc: enc}, nil
}

func (*CBORCodec) Name() string { return "cbor" }

func (c *CBORCodec) Decode(data []byte, msg *Message) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty CBOR frame", ErrMalformedRequest)
	}
	if err := c.dec.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return nil
}

func (c *CBORCodec) Encode(resp Response) ([]byte, error) {
	return c.enc.Marshal(resp)
}

func (c *CBORCodec) PeekSeq(data []byte) int64 {
	var head struct {
		Seq int64 `cbor:"seq"`
	}
	if err := c.dec.Unmarshal(data, &head); err != nil {
		return 0
	}
	return head.Seq
}
