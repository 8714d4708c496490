package domain

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	dErrors "custody/pkg/domain-errors"
)

// KeyLength is the byte length of identities, asset identifiers and salts.
const KeyLength = 32

// maxEncodedKeyLength bounds base58 input before decoding; 32 bytes never
// encode to more than 44 characters.
const maxEncodedKeyLength = 44

// Bytes32 is an opaque 32-byte value (salts, feed identifiers, slot keys).
type Bytes32 [KeyLength]byte

// Identity is an authenticated principal or external account.
// Text form is base58, the same alphabet used for on-chain public keys.
type Identity [KeyLength]byte

// AssetID identifies a fungible asset. The zero value is the native asset.
type AssetID [KeyLength]byte

// NativeAsset is the chain's native asset.
var NativeAsset = AssetID{}

// TimeLockID identifies a time-locked escrow record.
type TimeLockID uuid.UUID

// ParseIdentity decodes a base58 identity.
//
// Errors: returns CodeInvalidInput when the value is empty, not base58, the
// wrong length, or the all-zero identity.
func ParseIdentity(s string) (Identity, error) {
	b, err := decodeKey(s, "identity")
	if err != nil {
		return Identity{}, err
	}
	id := Identity(b)
	if id.IsNil() {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity cannot be zero")
	}
	return id, nil
}

// ParseAssetID decodes a base58 asset identifier. The zero asset is allowed
// and denotes the native asset.
func ParseAssetID(s string) (AssetID, error) {
	b, err := decodeKey(s, "asset")
	if err != nil {
		return AssetID{}, err
	}
	return AssetID(b), nil
}

// ParseBytes32 decodes a 64-character hex value.
func ParseBytes32(s string) (Bytes32, error) {
	var out Bytes32
	if len(s) != hex.EncodedLen(KeyLength) {
		return out, dErrors.New(dErrors.CodeInvalidInput, "expected 64 hex characters")
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, dErrors.New(dErrors.CodeInvalidInput, "invalid hex value")
	}
	return out, nil
}

// ParseTimeLockID validates a time-lock identifier.
func ParseTimeLockID(s string) (TimeLockID, error) {
	if s == "" {
		return TimeLockID{}, dErrors.New(dErrors.CodeInvalidInput, "time lock id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return TimeLockID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid time lock id")
	}
	return TimeLockID(u), nil
}

// NewTimeLockID returns a fresh random identifier.
func NewTimeLockID() TimeLockID {
	return TimeLockID(uuid.New())
}

func decodeKey(s, what string) ([KeyLength]byte, error) {
	var out [KeyLength]byte
	if s == "" {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	if len(s) > maxEncodedKeyLength {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" is too long")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return out, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what+" encoding")
	}
	if len(raw) != KeyLength {
		return out, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what+" length")
	}
	copy(out[:], raw)
	return out, nil
}

func (id Identity) String() string { return base58.Encode(id[:]) }
func (id Identity) IsNil() bool { return id == Identity{} }

func (id Identity) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *Identity) UnmarshalText(b []byte) error {
	b32, err := decodeKey(string(b), "identity")
	if err != nil {
		return err
	}
	*id = Identity(b32)
	return nil
}

func (a AssetID) String() string { return base58.Encode(a[:]) }
func (a AssetID) IsNative() bool { return a == NativeAsset }

func (a AssetID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AssetID) UnmarshalText(b []byte) error {
	b32, err := decodeKey(string(b), "asset")
	if err != nil {
		return err
	}
	*a = AssetID(b32)
	return nil
}

func (b Bytes32) String() string { return hex.EncodeToString(b[:]) }

func (b Bytes32) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Bytes32) UnmarshalText(text []byte) error {
	v, err := ParseBytes32(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (id TimeLockID) String() string { return uuid.UUID(id).String() }
func (id TimeLockID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id TimeLockID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TimeLockID) UnmarshalText(b []byte) error {
	v, err := ParseTimeLockID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
