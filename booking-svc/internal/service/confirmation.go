package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/skip2/go-qrcode"
)

const (
	confirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ConfirmationLength   = 8
)

// RandomCodeGenerator draws confirmation codes from crypto/rand.
type RandomCodeGenerator struct{}

func (RandomCodeGenerator) Generate() (string, error) {
	limit := big.NewInt(int64(len(confirmationAlphabet)))
	code := make([]byte, ConfirmationLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate confirmation code: %w", err)
		}
		code[i] = confirmationAlphabet[n.Int64()]
	}
	return string(code), nil
}

type DefaultQRGenerator struct {
	Size int
}

func (g DefaultQRGenerator) Generate(content string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
