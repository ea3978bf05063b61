package auth

import (
	"errors"
	"fmt"

	"github.com/meetupbot/meetupbot/internal/model"
)

// ErrUnknownKey is returned when a well-formed key matches no configured hash.
var ErrUnknownKey = errors.New("unknown robot key")

// Keyring holds the argon2id hashes of every accepted robot key, grouped by
// key prefix so a lookup only verifies against colliding candidates.
type Keyring struct {
	hashes map[string][]string
}

// NewKeyring builds a Keyring from prefix-grouped PHC hashes. Every hash is
// checked up front so a typo fails at startup instead of at request time.
func NewKeyring(hashes map[string][]string) (*Keyring, error) {
	kr := &Keyring{hashes: make(map[string][]string, len(hashes))}
	for prefix, list := range hashes {
		for _, h := range list {
			if err := CheckHash(h); err != nil {
				return nil, fmt.Errorf("robot key %s: %w", prefix, err)
			}
		}
		kr.hashes[prefix] = append([]string(nil), list...)
	}
	return kr, nil
}

// Len returns the number of configured keys.
func (k *Keyring) Len() int {
	n := 0
	for _, list := range k.hashes {
		n += len(list)
	}
	return n
}

// Verify authenticates a plaintext robot key.
func (k *Keyring) Verify(key string) (*model.Robot, error) {
	parsed, err := ParseKey(key)
	if err != nil {
		return nil, err
	}

	for _, h := range k.hashes[parsed.Prefix] {
		ok, err := VerifyKey(key, h)
		if err != nil {
			continue
		}
		if ok {
			return &model.Robot{KeyPrefix: parsed.Prefix, Env: parsed.Env}, nil
		}
	}

	return nil, ErrUnknownKey
}
