package domain

import "strings"

type DeliveryAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

func (a DeliveryAddress) Normalize() DeliveryAddress {
	return DeliveryAddress{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
	}
}

// Validate requires all four fields to be non-blank.
func (a DeliveryAddress) Validate() error {
	n := a.Normalize()
	if n.Street == "" || n.City == "" || n.State == "" || n.ZipCode == "" {
		return ErrInvalidAddress
	}
	return nil
}
