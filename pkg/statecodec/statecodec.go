// Package statecodec encodes the validated flags and list keys carried by the
// hidden `__state__` field across a page round trip.
package statecodec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-formstate/pkg/model"
)

var (
	// ErrMalformed is returned when the encoded state cannot be parsed.
	ErrMalformed = errors.New("statecodec: malformed state")
	// ErrSignature is returned when a signed state fails verification.
	ErrSignature = errors.New("statecodec: signature verification failed")
)

// Codec converts a ResultState to and from its hidden field value.
type Codec interface {
	Encode(state model.ResultState) (string, error)
	// Decode returns an empty state for an empty string.
	Decode(raw string) (model.ResultState, error)
}

// JSON returns the plain JSON codec.
func JSON() Codec {
	return jsonCodec{}
}

type jsonCodec struct{}

func (jsonCodec) Encode(state model.ResultState) (string, error) {
	data, err := json.Marshal(normalize(state))
	if err != nil {
		return "", fmt.Errorf("statecodec: encode: %w", err)
	}
	return string(data), nil
}

func (jsonCodec) Decode(raw string) (model.ResultState, error) {
	if strings.TrimSpace(raw) == "" {
		return model.NewResultState(), nil
	}
	var state model.ResultState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return model.NewResultState(), fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return normalize(state), nil
}

// Signed returns a codec producing `<payload>.<mac>` where payload is
// base64url msgpack and mac a truncated HMAC-SHA256 over it. The state stays
// readable but a client cannot forge validated flags or list keys.
func Signed(key []byte) Codec {
	if len(key) < sha256.Size {
		sum := sha256.Sum256(key)
		key = sum[:]
	}
	return signedCodec{key: append([]byte{}, key...)}
}

type signedCodec struct {
	key []byte
}

const macSize = 16

func (c signedCodec) Encode(state model.ResultState) (string, error) {
	packed, err := msgpack.Marshal(normalize(state))
	if err != nil {
		return "", fmt.Errorf("statecodec: encode: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(packed)
	sig := base64.RawURLEncoding.EncodeToString(c.mac(packed))
	return payload + "." + sig, nil
}

func (c signedCodec) Decode(raw string) (model.ResultState, error) {
	if strings.TrimSpace(raw) == "" {
		return model.NewResultState(), nil
	}
	payload, sig, found := strings.Cut(raw, ".")
	if !found {
		return model.NewResultState(), fmt.Errorf("%w: missing signature", ErrMalformed)
	}
	packed, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return model.NewResultState(), fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	mac, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return model.NewResultState(), fmt.Errorf("%w: signature: %v", ErrMalformed, err)
	}
	if !hmac.Equal(mac, c.mac(packed)) {
		return model.NewResultState(), ErrSignature
	}

	var state model.ResultState
	if err := msgpack.Unmarshal(packed, &state); err != nil {
		return model.NewResultState(), fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return normalize(state), nil
}

func (c signedCodec) mac(data []byte) []byte {
	h := hmac.New(sha256.New, c.key)
	h.Write(data)
	return h.Sum(nil)[:macSize]
}

func normalize(state model.ResultState) model.ResultState {
	return state.Clone()
}
