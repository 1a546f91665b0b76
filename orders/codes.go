package orders

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// CodeSource yields candidate human facing order codes.
type CodeSource interface {
	Next() (string, error)
}

// RandomCodes draws four digit codes between 1000 and 9999.
type RandomCodes struct {
	Reader io.Reader
}

func (c RandomCodes) Next() (string, error) {
	r := c.Reader
	if r == nil {
		r = rand.Reader
	}
	n, err := rand.Int(r, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("orders: draw code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
