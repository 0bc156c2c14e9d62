package stats

type FeeClass string

const (
	Outstanding FeeClass = "Outstanding"
	Partial     FeeClass = "Partial"
	Cleared     FeeClass = "Cleared"
)

// FeeStatus only looks at the balance; remarks never change the outcome.
func FeeStatus(balance float64) FeeClass {
	if balance > 0 {
		return Outstanding
	}
	return Cleared
}

// ClassifyFee refines FeeStatus with the backend's payment status.
func ClassifyFee(balance float64, paymentStatus string) FeeClass {
	if balance > 0 {
		return Outstanding
	}
	if paymentStatus == string(Partial) {
		return Partial
	}
	return Cleared
}
