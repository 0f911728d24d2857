// Package serialization turns flow documents into portable byte blobs and
// back. Blobs are self-describing: a small header records the codec and
// compression used, so a reader never needs out-of-band format knowledge.
// Encryption (AES-GCM) is optional and applies to the whole envelope body.
package serialization

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes document payloads.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// Compression identifies the compression applied to the encoded payload.
type Compression byte

const (
	CompressionNone Compression = 0
	CompressionGzip Compression = 1
	CompressionZstd Compression = 2
)

// codec identifiers carried in the envelope header.
const (
	codecJSON    byte = 1
	codecMsgPack byte = 2
)

// envelope layout: magic (2 bytes) | version | codec | compression | body.
var magic = [2]byte{'N', 'F'}

const envelopeVersion byte = 1

// Option configures a Codec pipeline.
type Option func(*Pipeline)

// WithCompression selects the compression stage.
func WithCompression(c Compression) Option {
	return func(p *Pipeline) { p.compression = c }
}

// WithEncryptionKey enables AES-GCM encryption. The key must be 16, 24 or
// 32 bytes (AES-128/192/256).
func WithEncryptionKey(key []byte) Option {
	return func(p *Pipeline) { p.key = key }
}

// Pipeline is the full encode path: codec, then compression, then optional
// encryption, wrapped in a self-describing envelope.
type Pipeline struct {
	codec       Codec
	compression Compression
	key         []byte
}

// New builds a pipeline around the given codec.
func New(codec Codec, opts ...Option) *Pipeline {
	p := &Pipeline{codec: codec, compression: CompressionNone}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Default returns the pipeline used by the storage adapters: MessagePack
// payloads under zstd.
func Default() *Pipeline {
	return New(MsgPack(), WithCompression(CompressionZstd))
}

// Marshal encodes v into an envelope.
func (p *Pipeline) Marshal(v interface{}) ([]byte, error) {
	body, err := p.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	body, err = compress(p.compression, body)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if len(p.key) > 0 {
		body, err = seal(p.key, body)
		if err != nil {
			return nil, fmt.Errorf("encrypt: %w", err)
		}
	}

	out := make([]byte, 0, len(body)+5)
	out = append(out, magic[0], magic[1], envelopeVersion, codecID(p.codec), byte(p.compression))
	return append(out, body...), nil
}

// Unmarshal decodes an envelope into v. The header decides the codec and
// compression, so a pipeline can read blobs written by a differently
// configured one as long as the encryption key matches.
func (p *Pipeline) Unmarshal(data []byte, v interface{}) error {
	if len(data) < 5 || data[0] != magic[0] || data[1] != magic[1] {
		return ErrBadEnvelope
	}
	if data[2] != envelopeVersion {
		return fmt.Errorf("%w: version %d", ErrBadEnvelope, data[2])
	}
	codec, err := codecByID(data[3])
	if err != nil {
		return err
	}
	compression := Compression(data[4])
	body := data[5:]

	if len(p.key) > 0 {
		body, err = open(p.key, body)
		if err != nil {
			return fmt.Errorf("decrypt: %w", err)
		}
	}
	body, err = decompress(compression, body)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	if err := codec.Decode(body, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func codecID(c Codec) byte {
	if c.Name() == "json" {
		return codecJSON
	}
	return codecMsgPack
}

func codecByID(id byte) (Codec, error) {
	switch id {
	case codecJSON:
		return JSON(), nil
	case codecMsgPack:
		return MsgPack(), nil
	default:
		return nil, fmt.Errorf("%w: codec id %d", ErrBadEnvelope, id)
	}
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	default:
		return data, nil
	}
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	default:
		return data, nil
	}
}

func seal(key, data []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, data, nil), nil
}

func open(key, data []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, ErrShortCiphertext
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

type jsonCodec struct{}

func (jsonCodec) Encode(v interface{}) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Decode(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                            { return "json" }

type msgpackCodec struct{}

func (msgpackCodec) Encode(v interface{}) ([]byte, error)    { return msgpack.Marshal(v) }
func (msgpackCodec) Decode(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }
func (msgpackCodec) Name() string                            { return "msgpack" }

// JSON returns the JSON codec. Project files saved for humans use this.
func JSON() Codec { return jsonCodec{} }

// MsgPack returns the MessagePack codec, the compact default for stores.
func MsgPack() Codec { return msgpackCodec{} }
