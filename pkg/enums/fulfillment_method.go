package enums

import "fmt"

// FulfillmentMethod selects how a buyer receives their order.
type FulfillmentMethod string

const (
	FulfillmentMethodPickup   FulfillmentMethod = "pickup"
	FulfillmentMethodShipping FulfillmentMethod = "shipping"
)

var validFulfillmentMethods = []FulfillmentMethod{
	FulfillmentMethodPickup,
	FulfillmentMethodShipping,
}

func (m FulfillmentMethod) String() string {
	return string(m)
}

func (m FulfillmentMethod) IsValid() bool {
	for _, candidate := range validFulfillmentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

func ParseFulfillmentMethod(value string) (FulfillmentMethod, error) {
	for _, candidate := range validFulfillmentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment method %q", value)
}
