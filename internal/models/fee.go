package models

// Fee is an append-only ledger entry; a student may have several per month.
type Fee struct {
	ID            uint    `gorm:"column:id;primaryKey" json:"id"`
	StudentName   string  `gorm:"column:student_name" json:"student_name"`
	RegNo         string  `gorm:"column:reg_no" json:"reg_no"`
	Month         string  `gorm:"column:month" json:"month"`
	PaymentDate   string  `gorm:"column:payment_date" json:"payment_date"`
	PaymentMode   string  `gorm:"column:payment_mode" json:"payment_mode"`
	BalanceAmount float64 `gorm:"column:balance_amount" json:"balance_amount"`
	ClassID       uint    `gorm:"column:class_id" json:"class_id"`
}

// TableName binds the model to the fees table.
func (Fee) TableName() string { return "fees" }
