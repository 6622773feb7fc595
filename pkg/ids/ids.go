// Package ids generates human-facing identifiers for orders, sales, and
// item barcodes. Uniqueness comes from uuid entropy; database unique
// indexes remain the final arbiter.
package ids

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	orderPrefix       = "SS"
	transactionPrefix = "TXN"
	barcodePrefix     = "SS"

	orderSuffixLen  = 6
	barcodeDigitLen = 10
)

// OrderNumber returns a display order number like SS-20260824-4F7A2C.
func OrderNumber(t time.Time) string {
	return fmt.Sprintf("%s-%s-%s", orderPrefix, t.UTC().Format("20060102"), hexSuffix(orderSuffixLen))
}

// TransactionID returns a settlement transaction id like TXN-20260824-9C01B3E4.
func TransactionID(t time.Time) string {
	return fmt.Sprintf("%s-%s-%s", transactionPrefix, t.UTC().Format("20060102"), hexSuffix(8))
}

// Barcode returns a scannable item code: the SS prefix plus ten digits.
func Barcode() string {
	raw := uuid.New()
	digits := make([]byte, 0, barcodeDigitLen)
	for _, b := range raw[:] {
		digits = append(digits, '0'+b%10)
		if len(digits) == barcodeDigitLen {
			break
		}
	}
	return barcodePrefix + string(digits)
}

func hexSuffix(n int) string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if n > len(hex) {
		n = len(hex)
	}
	return hex[:n]
}
