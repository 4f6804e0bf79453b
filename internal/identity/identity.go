// Package identity implements the signing collaborator: ed25519 keypairs
// kept in a file keystore, exposed to the change core as an opaque
// author string plus sign/verify.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoKey is returned when the keystore directory holds no key.
	ErrNoKey = errors.New("no key found, have you run init?")

	// ErrMultipleKeys is returned when the keystore directory holds more
	// than one key; the caller must disambiguate.
	ErrMultipleKeys = errors.New("multiple keys found in keystore")
)

// keyExt is the filename extension for stored keys. The stem is the
// hex-encoded public key.
const keyExt = ".key"

// Identity is a local signing identity. It satisfies change.Signer.
type Identity struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// Generate creates a fresh ed25519 identity.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return &Identity{priv: priv, pub: pub}, nil
}

// Author returns the identity string: the hex-encoded public key.
func (id *Identity) Author() string {
	return hex.EncodeToString(id.pub)
}

// Sign signs data with the identity's private key.
func (id *Identity) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(id.priv, data), nil
}

// Save writes the identity's seed into dir, creating it if needed. The
// file is named after the public key so the keystore is self-describing.
func (id *Identity) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating keystore dir: %w", err)
	}
	path := filepath.Join(dir, id.Author()+keyExt)
	seed := hex.EncodeToString(id.priv.Seed())
	if err := os.WriteFile(path, []byte(seed+"\n"), 0600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

// Load reads the single identity stored in dir. Zero keys returns ErrNoKey
// and more than one returns ErrMultipleKeys, so a misconfigured keystore
// is caught before anything gets signed.
func Load(dir string) (*Identity, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoKey
		}
		return nil, fmt.Errorf("reading keystore dir: %w", err)
	}

	var keyFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), keyExt) {
			keyFiles = append(keyFiles, e.Name())
		}
	}
	switch {
	case len(keyFiles) == 0:
		return nil, ErrNoKey
	case len(keyFiles) > 1:
		return nil, fmt.Errorf("%w: found %d keys in %s", ErrMultipleKeys, len(keyFiles), dir)
	}

	data, err := os.ReadFile(filepath.Join(dir, keyFiles[0]))
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("malformed key file %s", keyFiles[0])
	}

	priv := ed25519.NewKeyFromSeed(seed)
	id := &Identity{priv: priv, pub: priv.Public().(ed25519.PublicKey)}

	// The filename claims a public key; make sure it matches the seed.
	if want := strings.TrimSuffix(keyFiles[0], keyExt); want != id.Author() {
		return nil, fmt.Errorf("key file %s does not match its contents", keyFiles[0])
	}
	return id, nil
}
