// internal/services/fees.go
package services

import (
	"math/big"

	"github.com/prompteconomy/backend/internal/models"
)

// SplitPrice divides a purchase price between the platform and the creator.
// The platform fee is floor(price * percent / 100) in integer wei and the
// creator earning is the exact remainder, so fee + earning == price always
// holds and no wei is ever created or destroyed by rounding.
func SplitPrice(price models.Wei, feePercent int64) (fee, earning models.Wei) {
	p := price.BigInt()

	f := new(big.Int).Mul(p, big.NewInt(feePercent))
	f.Quo(f, big.NewInt(100))

	e := new(big.Int).Sub(p, f)

	return models.WeiFromBig(f), models.WeiFromBig(e)
}
