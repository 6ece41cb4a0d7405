// Command hash-generator prints the hex SHA-256 digest of an API key so it
// can be configured as TASKMAN_AUTH_API_KEY_HASH. Only the digest is ever
// stored server-side.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <api-key>\n", os.Args[0])
		os.Exit(2)
	}

	digest := sha256.Sum256([]byte(os.Args[1]))
	fmt.Println(hex.EncodeToString(digest[:]))
}
