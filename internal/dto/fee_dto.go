package dto

// FeeCreateRequest records a payment. Student name and class are taken from the roster.
type FeeCreateRequest struct {
	RegNo         string  `json:"reg_no" validate:"required,max=64"`
	Month         string  `json:"month" validate:"required,max=32"`
	PaymentDate   string  `json:"payment_date" validate:"required,datetime=2006-01-02"`
	PaymentMode   string  `json:"payment_mode" validate:"required,max=32"`
	BalanceAmount float64 `json:"balance_amount" validate:"gte=0"`
}

// FeeUpdateRequest patches a ledger entry.
type FeeUpdateRequest struct {
	Month         *string  `json:"month" validate:"omitempty,min=1,max=32"`
	PaymentDate   *string  `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMode   *string  `json:"payment_mode" validate:"omitempty,min=1,max=32"`
	BalanceAmount *float64 `json:"balance_amount" validate:"omitempty,gte=0"`
}

// FeeListQuery filters the ledger. Students always see only their own entries.
type FeeListQuery struct {
	ClassID uint
	Month   string
	RegNo   string
}
