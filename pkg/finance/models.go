// Package finance holds the ledger models shared by the store, the scheduled
// jobs and the API. Every row is owned by exactly one user.
package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/bcaldwell/ledgerline/pkg/recurrence"
)

type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`
	ID            string          `bun:",pk" json:"id"`
	UserID        string          `bun:",notnull" json:"user_id"`
	Name          string          `bun:",notnull" json:"name"`
	Type          AccountType     `bun:",notnull" json:"type"`
	Currency      string          `bun:",notnull" json:"currency"`
	Balance       decimal.Decimal `bun:"type:numeric(14,2),notnull" json:"balance"`
	Institution   string          `json:"institution,omitempty"`
	Archived      bool            `bun:",notnull" json:"archived"`
	CreatedAt     time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("account name is required")
	}
	if !a.Type.Valid() {
		return invalid("unknown account type %q", a.Type)
	}
	if len(a.Currency) != 3 {
		return invalid("currency %q must be a 3 letter ISO code", a.Currency)
	}
	return nil
}

type Transaction struct {
	bun.BaseModel     `bun:"table:transactions,alias:t"`
	ID                string          `bun:",pk" json:"id"`
	UserID            string          `bun:",notnull" json:"user_id"`
	AccountID         string          `bun:",notnull" json:"account_id"`
	TransferAccountID *string         `bun:",nullzero" json:"transfer_account_id,omitempty"`
	RecurringID       *string         `bun:",nullzero" json:"recurring_id,omitempty"`
	Date              time.Time       `bun:"type:date,notnull" json:"date"`
	Description       string          `json:"description"`
	Payee             string          `json:"payee,omitempty"`
	Category          string          `json:"category,omitempty"`
	Amount            decimal.Decimal `bun:"type:numeric(14,2),notnull" json:"amount"`
	Type              TransactionType `bun:",notnull" json:"type"`
	Memo              string          `bun:"type:text" json:"memo,omitempty"`
	Tags              []string        `bun:"type:jsonb" json:"tags,omitempty"`
	ImportKey         *string         `bun:",nullzero" json:"import_key,omitempty"`
	CreatedAt         time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func (t *Transaction) Validate() error {
	if t.AccountID == "" {
		return invalid("account_id is required")
	}
	if t.Date.IsZero() {
		return invalid("date is required")
	}
	if !t.Amount.IsPositive() {
		return invalid("amount must be greater than 0")
	}
	if !t.Type.Valid() {
		return invalid("unknown transaction type %q", t.Type)
	}

	if t.Type == Transfer {
		if t.TransferAccountID == nil || *t.TransferAccountID == "" {
			return invalid("transfer requires transfer_account_id")
		}
		if *t.TransferAccountID == t.AccountID {
			return invalid("cannot transfer to the same account")
		}
	} else if t.TransferAccountID != nil {
		return invalid("transfer_account_id is only allowed on transfers")
	}

	return nil
}

// EffectOn is the signed change the transaction makes to an account balance.
func (t *Transaction) EffectOn(accountID string) decimal.Decimal {
	switch {
	case t.AccountID == accountID && t.Type == Income:
		return t.Amount
	case t.AccountID == accountID:
		return t.Amount.Neg()
	case t.Type == Transfer && t.TransferAccountID != nil && *t.TransferAccountID == accountID:
		return t.Amount
	}

	return decimal.Zero
}

// AccountIDs lists every account whose balance the transaction touches.
func (t *Transaction) AccountIDs() []string {
	if t.Type == Transfer && t.TransferAccountID != nil {
		return []string{t.AccountID, *t.TransferAccountID}
	}
	return []string{t.AccountID}
}

type RecurringTransaction struct {
	bun.BaseModel `bun:"table:recurring_transactions,alias:r"`
	ID            string               `bun:",pk" json:"id"`
	UserID        string               `bun:",notnull" json:"user_id"`
	AccountID     string               `bun:",notnull" json:"account_id"`
	Description   string               `bun:",notnull" json:"description"`
	Payee         string               `json:"payee,omitempty"`
	Category      string               `json:"category,omitempty"`
	Amount        decimal.Decimal      `bun:"type:numeric(14,2),notnull" json:"amount"`
	Type          TransactionType      `bun:",notnull" json:"type"`
	Frequency     recurrence.Frequency `bun:",notnull" json:"frequency"`
	NextDueDate   time.Time            `bun:"type:date,notnull" json:"next_due_date"`
	// AnchorDate is the due date the series was defined from. The processor
	// only moves NextDueDate, so a month-end anchor survives shorter months.
	AnchorDate time.Time  `bun:"type:date,nullzero" json:"anchor_date"`
	EndDate    *time.Time `bun:"type:date,nullzero" json:"end_date,omitempty"`
	Paused     bool       `bun:",notnull" json:"paused"`
	CreatedAt  time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func (r *RecurringTransaction) Validate() error {
	if r.AccountID == "" {
		return invalid("account_id is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return invalid("description is required")
	}
	if !r.Amount.IsPositive() {
		return invalid("amount must be greater than 0")
	}
	if r.Type != Income && r.Type != Expense {
		return invalid("recurring transactions must be income or expense, got %q", r.Type)
	}
	if !r.Frequency.Valid() {
		return invalid("unknown frequency %q", r.Frequency)
	}
	if r.NextDueDate.IsZero() {
		return invalid("next_due_date is required")
	}
	if r.EndDate != nil && r.EndDate.Before(r.NextDueDate) {
		return invalid("end_date is before next_due_date")
	}
	return nil
}

// SignedAmount is the balance effect of one occurrence.
func (r *RecurringTransaction) SignedAmount() decimal.Decimal {
	if r.Type == Income {
		return r.Amount
	}
	return r.Amount.Neg()
}

// ActiveOn reports whether the recurrence may produce an occurrence on date.
func (r *RecurringTransaction) ActiveOn(date time.Time) bool {
	if r.Paused {
		return false
	}
	return r.EndDate == nil || !date.After(*r.EndDate)
}

func (r *RecurringTransaction) anchor() time.Time {
	if r.AnchorDate.IsZero() || r.AnchorDate.After(r.NextDueDate) {
		return r.NextDueDate
	}
	return r.AnchorDate
}

// Occurrences projects the recurrence into [start, end], honouring pause and
// end date. Nothing before NextDueDate is returned.
func (r *RecurringTransaction) Occurrences(start, end time.Time) []time.Time {
	if r.Paused {
		return nil
	}
	if r.EndDate != nil && r.EndDate.Before(end) {
		end = *r.EndDate
	}
	if start.Before(r.NextDueDate) {
		start = r.NextDueDate
	}
	return recurrence.Occurrences(r.anchor(), r.Frequency, start, end)
}

// NextAfter returns the first occurrence of the series strictly after date.
func (r *RecurringTransaction) NextAfter(date time.Time) (time.Time, bool) {
	return recurrence.Next(r.anchor(), r.Frequency, date)
}

// MonthlyAmount normalizes the signed amount to an average month.
func (r *RecurringTransaction) MonthlyAmount() decimal.Decimal {
	perYear := decimal.NewFromFloat(r.Frequency.PerYear())
	return Round(r.SignedAmount().Mul(perYear).Div(decimal.NewFromInt(12)), 2)
}

type Budget struct {
	bun.BaseModel `bun:"table:budgets,alias:b"`
	ID            string          `bun:",pk" json:"id"`
	UserID        string          `bun:",notnull" json:"user_id"`
	Category      string          `bun:",notnull" json:"category"`
	Amount        decimal.Decimal `bun:"type:numeric(14,2),notnull" json:"amount"`
	// Month is the first day of the month the budget applies to, nil for every month.
	Month     *time.Time `bun:"type:date,nullzero" json:"month,omitempty"`
	CreatedAt time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func (b *Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return invalid("category is required")
	}
	if !b.Amount.IsPositive() {
		return invalid("amount must be greater than 0")
	}
	if b.Month != nil && b.Month.Day() != 1 {
		return invalid("month must be the first day of a month")
	}
	return nil
}

// AppliesTo reports whether the budget covers the month containing t.
func (b *Budget) AppliesTo(t time.Time) bool {
	if b.Month == nil {
		return true
	}
	return b.Month.Year() == t.Year() && b.Month.Month() == t.Month()
}

type SavingsGoal struct {
	bun.BaseModel `bun:"table:savings_goals,alias:g"`
	ID            string          `bun:",pk" json:"id"`
	UserID        string          `bun:",notnull" json:"user_id"`
	Name          string          `bun:",notnull" json:"name"`
	TargetAmount  decimal.Decimal `bun:"type:numeric(14,2),notnull" json:"target_amount"`
	CurrentAmount decimal.Decimal `bun:"type:numeric(14,2),notnull" json:"current_amount"`
	TargetDate    *time.Time      `bun:"type:date,nullzero" json:"target_date,omitempty"`
	AccountID     *string         `bun:",nullzero" json:"account_id,omitempty"`
	CreatedAt     time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func (g *SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("goal name is required")
	}
	if !g.TargetAmount.IsPositive() {
		return invalid("target_amount must be greater than 0")
	}
	if g.CurrentAmount.IsNegative() {
		return invalid("current_amount cannot be negative")
	}
	return nil
}

type Investment struct {
	bun.BaseModel `bun:"table:investments,alias:i"`
	ID            string          `bun:",pk" json:"id"`
	UserID        string          `bun:",notnull" json:"user_id"`
	AccountID     *string         `bun:",nullzero" json:"account_id,omitempty"`
	Symbol        string          `bun:",notnull" json:"symbol"`
	Name          string          `json:"name,omitempty"`
	Quantity      decimal.Decimal `bun:"type:numeric(18,6),notnull" json:"quantity"`
	PurchasePrice decimal.Decimal `bun:"type:numeric(18,4),notnull" json:"purchase_price"`
	CurrentPrice  decimal.Decimal `bun:"type:numeric(18,4),notnull" json:"current_price"`
	Currency      string          `bun:",notnull" json:"currency"`
	PurchaseDate  *time.Time      `bun:"type:date,nullzero" json:"purchase_date,omitempty"`
	UpdatedAt     time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

func (i *Investment) Validate() error {
	if strings.TrimSpace(i.Symbol) == "" {
		return invalid("symbol is required")
	}
	if !i.Quantity.IsPositive() {
		return invalid("quantity must be greater than 0")
	}
	if i.PurchasePrice.IsNegative() || i.CurrentPrice.IsNegative() {
		return invalid("prices cannot be negative")
	}
	if len(i.Currency) != 3 {
		return invalid("currency %q must be a 3 letter ISO code", i.Currency)
	}
	return nil
}

func (i *Investment) MarketValue() decimal.Decimal {
	return Round(i.Quantity.Mul(i.CurrentPrice), 2)
}

func (i *Investment) CostBasis() decimal.Decimal {
	return Round(i.Quantity.Mul(i.PurchasePrice), 2)
}

// AccountSnapshot is one account's closing balance on a date.
type AccountSnapshot struct {
	bun.BaseModel `bun:"table:account_snapshots,alias:s"`
	Key           string          `bun:",pk" json:"key"`
	UserID        string          `bun:",notnull" json:"user_id"`
	AccountID     string          `bun:",notnull" json:"account_id"`
	AccountName   string          `json:"account_name"`
	Date          time.Time       `bun:"type:date,notnull" json:"date"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `bun:"type:numeric(14,2),notnull" json:"balance"`
	BaseCurrency  string          `json:"base_currency"`
	BaseBalance   decimal.Decimal `bun:"type:numeric(14,2),notnull" json:"base_balance"`
}

func (s AccountSnapshot) ItemDate() time.Time {
	return s.Date
}

func SnapshotKey(date time.Time, userID, accountID string) string {
	return fmt.Sprintf("%s::%s::%s", date.Format("01-02-2006"), userID, accountID)
}

// NetWorth is a user's total across accounts and holdings on a date.
type NetWorth struct {
	bun.BaseModel `bun:"table:networth,alias:n"`
	Key           string                     `bun:",pk" json:"key"`
	UserID        string                     `bun:",notnull" json:"user_id"`
	Date          time.Time                  `bun:"type:date,notnull" json:"date"`
	BaseCurrency  string                     `json:"base_currency"`
	Total         decimal.Decimal            `bun:"type:numeric(14,2),notnull" json:"total"`
	Breakdown     map[string]decimal.Decimal `bun:"type:jsonb" json:"breakdown"`
}

func (n NetWorth) ItemDate() time.Time {
	return n.Date
}

func NetWorthKey(date time.Time, userID string) string {
	return fmt.Sprintf("%s::%s", date.Format("01-02-2006"), userID)
}
