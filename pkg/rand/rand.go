package rand

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	tokenLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// TokenLength is the length of generated trigger tokens.
	TokenLength = 32
)

// Token returns a random string of n characters drawn from [A-Za-z0-9].
// Bytes that would bias the distribution are rejected and redrawn.
func Token(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("token length must be positive")
	}

	// 62 letters: accept bytes below 248 (4*62) so every letter is equally likely
	const limit = 256 - 256%len(tokenLetters)

	result := make([]byte, 0, n)
	buf := make([]byte, n+n/3)
	for len(result) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			result = append(result, tokenLetters[int(b)%len(tokenLetters)])
			if len(result) == n {
				break
			}
		}
	}
	return string(result), nil
}

// TokenWithHash returns a new trigger token and the bcrypt hash to configure
// on the server side.
func TokenWithHash() (string, string, error) {
	t, err := Token(TokenLength)
	if err != nil {
		return "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(t), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return t, string(hash), nil
}
