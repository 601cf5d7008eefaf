package repository

import (
	"time"

	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/alias"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/domain/payment"
	"github.com/amirasaad/codepay/pkg/money"
	"gorm.io/datatypes"
)

// Account represents the bank, a user or a merchant in the database.
// Email is NULL for the bank so the (kind, email) index only constrains parties.
type Account struct {
	ID        string  `gorm:"primaryKey;size:64"`
	Kind      string  `gorm:"size:16;not null;uniqueIndex:idx_accounts_kind_email,priority:1"`
	Name      string  `gorm:"size:255;not null"`
	Email     *string `gorm:"size:255;uniqueIndex:idx_accounts_kind_email,priority:2"`
	Balance   int64   `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerEntry is an append-only ledger row.
type LedgerEntry struct {
	ID            string    `gorm:"primaryKey;size:26"`
	AccountID     string    `gorm:"size:64;not null;index:idx_ledger_account_created,priority:1"`
	Scope         string    `gorm:"size:16;not null"`
	Type          string    `gorm:"size:32;not null"`
	Amount        int64     `gorm:"not null"`
	BalanceBefore int64     `gorm:"not null"`
	BalanceAfter  int64     `gorm:"not null"`
	Description   string    `gorm:"size:512"`
	RelatedID     string    `gorm:"size:64"`
	CreatedAt     time.Time `gorm:"not null;index:idx_ledger_account_created,priority:2"`
}

// Order represents a payment request.
type Order struct {
	ID           string  `gorm:"primaryKey;size:64"`
	PaymentCode  string  `gorm:"size:8;not null;uniqueIndex"`
	MerchantID   string  `gorm:"size:64;not null;index"`
	MerchantName string  `gorm:"size:255"`
	Amount       int64   `gorm:"not null"`
	Description  string  `gorm:"size:512"`
	Status       string  `gorm:"size:16;not null;index:idx_orders_status_expires,priority:1"`
	PaymentID    *string `gorm:"size:64"`
	CreatedAt    time.Time
	ExpiresAt    time.Time `gorm:"not null;index:idx_orders_status_expires,priority:2"`
	UpdatedAt    time.Time
}

// Payment represents a settled order.
type Payment struct {
	ID               string `gorm:"primaryKey;size:64"`
	OrderID          string `gorm:"size:64;not null;uniqueIndex"`
	UserID           string `gorm:"size:64;not null;index"`
	UserName         string `gorm:"size:255"`
	MerchantID       string `gorm:"size:64;not null;index"`
	Amount           int64  `gorm:"not null"`
	Fee              int64  `gorm:"not null"`
	AmountToMerchant int64  `gorm:"not null"`
	PaymentMethod    string `gorm:"size:64"`
	Status           string `gorm:"size:16;not null"`
	ProcessedAt      time.Time
	ReversedAt       *time.Time
}

// Alias maps a unique handle to a user.
type Alias struct {
	ID        string `gorm:"primaryKey;size:64"`
	Type      string `gorm:"size:32;not null"`
	Value     string `gorm:"size:255;not null;uniqueIndex"`
	UserID    string `gorm:"size:64;not null;index"`
	CreatedAt time.Time
}

// AuditRecord is a write-once audit row. Detail is stored as JSON.
type AuditRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Action    string `gorm:"size:32;not null;index"`
	ActorID   string `gorm:"size:64"`
	ActorType string `gorm:"size:16"`
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:512"`
	Status    string `gorm:"size:16;not null"`
	Detail    datatypes.JSONType[audit.Detail]
	CreatedAt time.Time `gorm:"index"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }
func (AuditRecord) TableName() string { return "audit_records" }

// Models lists every table, in creation order.
func Models() []any {
	return []any{&Account{}, &LedgerEntry{}, &Order{}, &Payment{}, &Alias{}, &AuditRecord{}}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toAccountModel(a *account.Account) *Account {
	return &Account{
		ID:        a.ID,
		Kind:      string(a.Kind),
		Name:      a.Name,
		Email:     nullable(a.Email),
		Balance:   int64(a.Balance),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *Account) toDomain() *account.Account {
	return &account.Account{
		ID:        m.ID,
		Kind:      account.Kind(m.Kind),
		Name:      m.Name,
		Email:     deref(m.Email),
		Balance:   money.Amount(m.Balance),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toLedgerModel(e *ledger.Entry) *LedgerEntry {
	return &LedgerEntry{
		ID:            e.ID,
		AccountID:     e.AccountID,
		Scope:         string(e.Scope),
		Type:          string(e.Type),
		Amount:        int64(e.Amount),
		BalanceBefore: int64(e.BalanceBefore),
		BalanceAfter:  int64(e.BalanceAfter),
		Description:   e.Description,
		RelatedID:     e.RelatedID,
		CreatedAt:     e.CreatedAt,
	}
}

func (m *LedgerEntry) toDomain() *ledger.Entry {
	return &ledger.Entry{
		ID:            m.ID,
		AccountID:     m.AccountID,
		Scope:         ledger.Scope(m.Scope),
		Type:          ledger.Type(m.Type),
		Amount:        money.Amount(m.Amount),
		BalanceBefore: money.Amount(m.BalanceBefore),
		BalanceAfter:  money.Amount(m.BalanceAfter),
		Description:   m.Description,
		RelatedID:     m.RelatedID,
		CreatedAt:     m.CreatedAt,
	}
}

func toOrderModel(o *order.Order) *Order {
	return &Order{
		ID:           o.ID,
		PaymentCode:  o.PaymentCode,
		MerchantID:   o.MerchantID,
		MerchantName: o.MerchantName,
		Amount:       int64(o.Amount),
		Description:  o.Description,
		Status:       string(o.Status),
		PaymentID:    nullable(o.PaymentID),
		CreatedAt:    o.CreatedAt,
		ExpiresAt:    o.ExpiresAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func (m *Order) toDomain() *order.Order {
	return &order.Order{
		ID:           m.ID,
		PaymentCode:  m.PaymentCode,
		MerchantID:   m.MerchantID,
		MerchantName: m.MerchantName,
		Amount:       money.Amount(m.Amount),
		Description:  m.Description,
		Status:       order.Status(m.Status),
		PaymentID:    deref(m.PaymentID),
		CreatedAt:    m.CreatedAt,
		ExpiresAt:    m.ExpiresAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toPaymentModel(p *payment.Payment) *Payment {
	return &Payment{
		ID:               p.ID,
		OrderID:          p.OrderID,
		UserID:           p.UserID,
		UserName:         p.UserName,
		MerchantID:       p.MerchantID,
		Amount:           int64(p.Amount),
		Fee:              int64(p.Fee),
		AmountToMerchant: int64(p.AmountToMerchant),
		PaymentMethod:    p.PaymentMethod,
		Status:           string(p.Status),
		ProcessedAt:      p.ProcessedAt,
		ReversedAt:       p.ReversedAt,
	}
}

func (m *Payment) toDomain() *payment.Payment {
	return &payment.Payment{
		ID:               m.ID,
		OrderID:          m.OrderID,
		UserID:           m.UserID,
		UserName:         m.UserName,
		MerchantID:       m.MerchantID,
		Amount:           money.Amount(m.Amount),
		Fee:              money.Amount(m.Fee),
		AmountToMerchant: money.Amount(m.AmountToMerchant),
		PaymentMethod:    m.PaymentMethod,
		Status:           payment.Status(m.Status),
		ProcessedAt:      m.ProcessedAt,
		ReversedAt:       m.ReversedAt,
	}
}

func toAliasModel(a *alias.Alias) *Alias {
	return &Alias{ID: a.ID, Type: a.Type, Value: a.Value, UserID: a.UserID, CreatedAt: a.CreatedAt}
}

func (m *Alias) toDomain() *alias.Alias {
	return &alias.Alias{ID: m.ID, Type: m.Type, Value: m.Value, UserID: m.UserID, CreatedAt: m.CreatedAt}
}

func toAuditModel(r *audit.Record) *AuditRecord {
	return &AuditRecord{
		ID:        r.ID,
		Action:    string(r.Action),
		ActorID:   r.ActorID,
		ActorType: r.ActorType,
		IP:        r.IP,
		UserAgent: r.UserAgent,
		Status:    r.Status,
		Detail:    datatypes.NewJSONType(r.Detail),
		CreatedAt: r.CreatedAt,
	}
}

func (m *AuditRecord) toDomain() *audit.Record {
	return &audit.Record{
		ID:        m.ID,
		Action:    audit.Action(m.Action),
		ActorID:   m.ActorID,
		ActorType: m.ActorType,
		IP:        m.IP,
		UserAgent: m.UserAgent,
		Status:    m.Status,
		Detail:    m.Detail.Data(),
		CreatedAt: m.CreatedAt,
	}
}
