package financial

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"

	TxPending   = "PENDING"
	TxPaid      = "PAID"
	TxCancelled = "CANCELLED"

	ReconciliationReconciled  = "RECONCILED"
	ReconciliationDiscrepancy = "DISCREPANCY"
)

type Account struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name                string         `gorm:"not null" json:"name"`
	BankName            string         `json:"bank_name,omitempty"`
	AgencyNumber        string         `json:"agency_number,omitempty"`
	AccountNumber       string         `json:"account_number,omitempty"`
	OpeningBalanceCents int64          `gorm:"not null;default:0" json:"opening_balance_cents"`
	IsActive            bool           `gorm:"not null" json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Account) TableName() string { return "financial_account" }

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Transaction struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	AccountID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"account_id"`
	ResidentID       *uuid.UUID     `gorm:"type:uuid;index" json:"resident_id,omitempty"`
	ContractID       *uuid.UUID     `gorm:"type:uuid;index" json:"contract_id,omitempty"`
	Type             string         `gorm:"not null" json:"type"`
	Category         string         `json:"category,omitempty"`
	Description      string         `gorm:"not null" json:"description"`
	AmountCents      int64          `gorm:"not null" json:"amount_cents"`
	DueDate          string         `gorm:"size:10;not null;index" json:"due_date"`
	PaidAt           *string        `gorm:"size:10;index" json:"paid_at,omitempty"`
	Status           string         `gorm:"not null;index" json:"status"`
	IsReconciled     bool           `gorm:"not null;default:false" json:"is_reconciled"`
	ReconciliationID *uuid.UUID     `gorm:"type:uuid;index" json:"reconciliation_id,omitempty"`
	CreatedBy        uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Transaction) TableName() string { return "financial_transaction" }

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Signed returns the amount with expenses negative.
func (t *Transaction) Signed() int64 {
	if t.Type == TypeExpense {
		return -t.AmountCents
	}
	return t.AmountCents
}

type Reconciliation struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID            uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	AccountID           uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	PeriodStart         string    `gorm:"size:10;not null" json:"period_start"`
	PeriodEnd           string    `gorm:"size:10;not null" json:"period_end"`
	ClosingBalanceCents int64     `gorm:"not null" json:"closing_balance_cents"`
	SystemBalanceCents  int64     `gorm:"not null" json:"system_balance_cents"`
	DifferenceCents     int64     `gorm:"not null" json:"difference_cents"`
	TransactionCount    int       `gorm:"not null;default:0" json:"transaction_count"`
	Status              string    `gorm:"not null;index" json:"status"`
	ReconciledBy        uuid.UUID `gorm:"type:uuid;not null" json:"reconciled_by"`
	ReconciledAt        time.Time `gorm:"not null" json:"reconciled_at"`
	Notes               string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (Reconciliation) TableName() string { return "financial_reconciliation" }

func (r *Reconciliation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
