package cache

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts cached values to and from bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// MsgpackCodec encodes values with msgpack, honouring json struct tags so cached values
// share field names with the HTTP representation.
type MsgpackCodec struct{}

// NewMsgpackCodec returns the default codec.
func NewMsgpackCodec() Codec {
	return MsgpackCodec{}
}

func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}
