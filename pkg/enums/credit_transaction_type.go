package enums

import "fmt"

// CreditTransactionType signs a store-credit ledger entry.
type CreditTransactionType string

const (
	CreditTransactionTypeEarned CreditTransactionType = "earned"
	CreditTransactionTypeUsed   CreditTransactionType = "used"
)

var validCreditTransactionTypes = []CreditTransactionType{
	CreditTransactionTypeEarned,
	CreditTransactionTypeUsed,
}

func (t CreditTransactionType) String() string {
	return string(t)
}

func (t CreditTransactionType) IsValid() bool {
	for _, candidate := range validCreditTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseCreditTransactionType(value string) (CreditTransactionType, error) {
	for _, candidate := range validCreditTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid credit transaction type %q", value)
}
