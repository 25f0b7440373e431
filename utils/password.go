package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	lowerChars  = "abcdefghijkmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars  = "23456789"
	symbolChars = "@#%+=_-"
)

// GenerateSecurePassword creates a random password of the specified length
// that always holds a lower-case letter, an upper-case letter and a digit
func GenerateSecurePassword(length int) (string, error) {
	// Ensure minimum length
	if length < 8 {
		length = 8
	}

	all := lowerChars + upperChars + digitChars + symbolChars
	password := make([]byte, length)
	for i, set := range []string{lowerChars, upperChars, digitChars} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		password[i] = c
	}
	for i := 3; i < length; i++ {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		password[i] = c
	}

	// Shuffle so the guaranteed classes are not always in front
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		password[i], password[j.Int64()] = password[j.Int64()], password[i]
	}
	return string(password), nil
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
