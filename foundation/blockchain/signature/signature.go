// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// ledgerID is an arbitrary number added to the recovery id of every
// signature. It makes it clear the signature was produced for this ledger.
// Ethereum and Bitcoin do this as well, but they use the value of 27.
const ledgerID = 29

// Set of errors returned when a signature is rejected.
var (
	ErrMalformedSignature = errors.New("malformed signature")
	ErrSignerMismatch     = errors.New("signature was not produced by the claimed account")
)

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// PublicKeyToAccount converts the public key to the account string used
// as a ledger identity.
func PublicKeyToAccount(pk ecdsa.PublicKey) string {
	return crypto.PubkeyToAddress(pk).String()
}

// Sign uses the specified private key to sign the data. The signature is
// returned hex encoded in the [R|S|V] format.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", errors.New("invalid signature")
	}

	sig[crypto.RecoveryIDOffset] += ledgerID

	return hexutil.Encode(sig), nil
}

// VerifySignature checks the signature conforms to our standards and that
// it was produced over the value by the private key behind the account.
func VerifySignature(value any, sig string, account string) error {
	from, err := FromAddress(value, sig)
	if err != nil {
		return err
	}

	if from != account {
		return fmt.Errorf("%w: got %s, exp %s", ErrSignerMismatch, from, account)
	}

	return nil
}

// FromAddress extracts the address for the account that signed the data.
func FromAddress(value any, sig string) (string, error) {

	// NOTE: If the same exact data for the given signature is not provided
	// we will get the wrong from address. The public key is extracted from
	// the data and the signature, so a tampered payload recovers a
	// different account.

	raw, err := toSignatureBytes(sig)
	if err != nil {
		return "", err
	}

	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(data, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedSignature, err)
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the data.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide a data length
	// consistency with all data.
	txHash := crypto.Keccak256(v)

	// This stamp is used so signatures we produce when signing data
	// are always unique to this ledger.
	stamp := []byte("\x19PoW Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}

// toSignatureBytes decodes the hex signature and removes the ledger id
// from the recovery byte after checking the r and s values.
func toSignatureBytes(sig string) ([]byte, error) {
	raw, err := hexutil.Decode(sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedSignature, err)
	}

	if len(raw) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedSignature, len(raw))
	}

	v := raw[crypto.RecoveryIDOffset] - ledgerID
	if v != 0 && v != 1 {
		return nil, fmt.Errorf("%w: invalid recovery id", ErrMalformedSignature)
	}

	r := new(big.Int).SetBytes(raw[:32])
	s := new(big.Int).SetBytes(raw[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return nil, fmt.Errorf("%w: invalid signature values", ErrMalformedSignature)
	}

	raw[crypto.RecoveryIDOffset] = v

	return raw, nil
}
