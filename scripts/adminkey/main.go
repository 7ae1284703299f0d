// adminkey generates a random admin key and its Argon2id hash for Thor.
//
// Usage (run from the repo root):
//
//	go run scripts/adminkey/main.go
//
// Prints the plaintext key (give this to the operator) and the hash to put
// in THOR_ADMIN_KEY_HASH. The plaintext is never stored; if it is lost,
// rerun this script and update the env var.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/thorfit/thor/internal/auth"
)

func main() {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		fmt.Fprintf(os.Stderr, "error: generate key: %v\n", err)
		os.Exit(1)
	}
	key := base64.RawURLEncoding.EncodeToString(raw)

	hash, err := auth.HashAdminKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: hash key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("admin key:           %s\n", key)
	fmt.Printf("THOR_ADMIN_KEY_HASH: %s\n", hash)
}
