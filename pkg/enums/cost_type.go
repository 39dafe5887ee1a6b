package enums

import "fmt"

// DeliveryCostType selects how a restaurant's delivery fee is computed.
type DeliveryCostType string

const (
	DeliveryCostTypeFixed DeliveryCostType = "fixed"
	DeliveryCostTypePerKM DeliveryCostType = "per_km"
)

func (t DeliveryCostType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known DeliveryCostType.
func (t DeliveryCostType) IsValid() bool {
	return t == DeliveryCostTypeFixed || t == DeliveryCostTypePerKM
}

// ParseDeliveryCostType converts raw input into a DeliveryCostType.
func ParseDeliveryCostType(value string) (DeliveryCostType, error) {
	switch DeliveryCostType(value) {
	case DeliveryCostTypeFixed:
		return DeliveryCostTypeFixed, nil
	case DeliveryCostTypePerKM:
		return DeliveryCostTypePerKM, nil
	}
	return "", fmt.Errorf("invalid delivery cost type %q", value)
}
