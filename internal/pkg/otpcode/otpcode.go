// Package otpcode generates the numeric one-time passcodes mailed to users.
package otpcode

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	minCode = 100000
	maxCode = 999999
)

var span = big.NewInt(maxCode - minCode + 1)

type Generator interface {
	Generate() (string, error)
}

type randomGenerator struct{}

// NewGenerator returns a generator drawing 6-digit codes uniformly from
// [100000, 999999] using crypto/rand.
func NewGenerator() Generator {
	return randomGenerator{}
}

func (randomGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+minCode, 10), nil
}

// Fixed always returns the same code.
type Fixed string

func (f Fixed) Generate() (string, error) {
	return string(f), nil
}
