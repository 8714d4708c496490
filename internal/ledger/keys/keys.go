// Package keys derives the per-owner salt and the per-(owner, asset) balance
// slot key. Both are Keccak-256 digests so slot keys are stable for a given
// bank salt and cannot be ground by other identities.
package keys

import (
	"golang.org/x/crypto/sha3"

	id "custody/pkg/domain"
)

// OwnerSalt returns H(bankSalt || owner).
func OwnerSalt(bankSalt id.Bytes32, owner id.Identity) id.Bytes32 {
	h := sha3.NewLegacyKeccak256()
	h.Write(bankSalt[:])
	h.Write(owner[:])
	return sum(h.Sum(nil))
}

// SlotKey returns H(owner || asset || ownerSalt).
func SlotKey(owner id.Identity, asset id.AssetID, ownerSalt id.Bytes32) id.Bytes32 {
	h := sha3.NewLegacyKeccak256()
	h.Write(owner[:])
	h.Write(asset[:])
	h.Write(ownerSalt[:])
	return sum(h.Sum(nil))
}

// Deriver binds an owner to its salt so callers derive slot keys without
// recomputing the salt per asset.
type Deriver struct {
	Owner id.Identity
	Salt  id.Bytes32
}

// NewDeriver computes owner's salt under bankSalt.
func NewDeriver(bankSalt id.Bytes32, owner id.Identity) Deriver {
	return Deriver{Owner: owner, Salt: OwnerSalt(bankSalt, owner)}
}

// Key returns the slot key for asset.
func (d Deriver) Key(asset id.AssetID) id.Bytes32 {
	return SlotKey(d.Owner, asset, d.Salt)
}

func sum(b []byte) id.Bytes32 {
	var out id.Bytes32
	copy(out[:], b)
	return out
}
