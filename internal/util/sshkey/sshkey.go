// Package sshkey validates and normalizes OpenSSH public keys.
//
// Keys arrive from the operator as a file path or an inline string and are
// installed verbatim into an authorized_keys file, so they are validated up
// front: a typo in the key is only discoverable after password logins have
// been disabled, which is too late.
package sshkey

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Normalize validates a single authorized_keys entry and returns it as one
// trimmed line. The key material and any trailing comment are preserved
// exactly; only surrounding whitespace is stripped.
func Normalize(raw string) (string, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return "", fmt.Errorf("public key is empty")
	}
	if strings.ContainsAny(line, "\r\n") {
		return "", fmt.Errorf("public key must be a single line")
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line)); err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}
	return line, nil
}

// ReadFile loads and normalizes the first key from an authorized_keys-format
// file. Blank lines and comments before the key are skipped.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to read public key file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return Normalize(line)
	}
	return "", fmt.Errorf("no public key found in %s", path)
}

// Fingerprint returns the SHA256 fingerprint of a valid key line, for log
// output that must never contain the key material itself.
func Fingerprint(line string) (string, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}
