package domain

import "errors"

type PaymentMode string

// remember to add new modes to the validPaymentModes map
const (
	PaymentModeUnset          PaymentMode = ""
	PaymentModeCashOnDelivery PaymentMode = "cod"
	PaymentModeUPI            PaymentMode = "upi"
	PaymentModeCard           PaymentMode = "card"
)

var validPaymentModes = map[PaymentMode]string{
	PaymentModeCashOnDelivery: "Cash on Delivery",
	PaymentModeUPI:            "UPI",
	PaymentModeCard:           "Credit/Debit Card",
}

// ToPaymentMode parses a wire value. The long form "cash_on_delivery" is
// accepted as an alias of "cod".
func ToPaymentMode(s string) (PaymentMode, error) {
	if s == "cash_on_delivery" {
		return PaymentModeCashOnDelivery, nil
	}

	mode := PaymentMode(s)
	if _, ok := validPaymentModes[mode]; ok {
		return mode, nil
	}

	return PaymentModeUnset, errors.New("invalid payment mode")
}

func (m PaymentMode) IsSet() bool {
	return m != PaymentModeUnset
}

// Label is the human readable name shown next to an order.
func (m PaymentMode) Label() string {
	if label, ok := validPaymentModes[m]; ok {
		return label
	}
	return string(m)
}
