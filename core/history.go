package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RemoteStatusPending   = "pending"
	RemoteStatusSuccess   = "success"
	RemoteStatusFailed    = "failed"
	RemoteStatusCancelled = "cancelled"
)

type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserRef struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

type AccountLog struct {
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Amount        decimal.Decimal `json:"amount"`
	IP            string          `json:"ip,omitempty"`
}

// TransferHistory is a transfer record as the backend reports it.
type TransferHistory struct {
	ID             int64           `json:"id"`
	User           *UserRef        `json:"user,omitempty"`
	Game           *Ref            `json:"game,omitempty"`
	GameServer     *Ref            `json:"game_server,omitempty"`
	GameCharacter  *Ref            `json:"game_character,omitempty"`
	AmountCoin     decimal.Decimal `json:"amount_coin"`
	AmountIngame   decimal.Decimal `json:"amount_ingame"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	UserAccountLog *AccountLog     `json:"user_account_log,omitempty"`
}

type DepositHistory struct {
	ID              int64           `json:"id"`
	User            *UserRef        `json:"user,omitempty"`
	Status          string          `json:"status"`
	Method          string          `json:"method"`
	TransactionCode string          `json:"transaction_code"`
	Bank            *Ref            `json:"bank,omitempty"`
	FromAmount      decimal.Decimal `json:"from_amount"`
	FromCurrency    string          `json:"from_currency"`
	ToAmount        decimal.Decimal `json:"to_amount"`
	ToCurrency      string          `json:"to_currency"`
	CreatedAt       time.Time       `json:"created_at"`
	UserAccountLog  *AccountLog     `json:"user_account_log,omitempty"`
}

type DepositMethod struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	LogoURL   string `json:"logo_url,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at,omitempty"`
}

type DepositMethods struct {
	Method string           `json:"method"`
	Data   []*DepositMethod `json:"data"`
}

// Active returns the active methods when the catalogue is of the given method kind.
func (m *DepositMethods) Active(method string) []*DepositMethod {
	if m == nil || m.Method != method {
		return nil
	}

	var active []*DepositMethod
	for _, d := range m.Data {
		if d.IsActive {
			active = append(active, d)
		}
	}

	return active
}

type DepositPackage struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	FromAmount    decimal.Decimal `json:"from_amount"`
	FromCurrency  string          `json:"from_currency"`
	ToAmount      decimal.Decimal `json:"to_amount"`
	ToCurrency    string          `json:"to_currency"`
	IsActive      bool            `json:"is_active"`
}

func ActivePackages(packages []*DepositPackage, paymentMethod string) []*DepositPackage {
	var active []*DepositPackage
	for _, p := range packages {
		if p.IsActive && p.PaymentMethod == paymentMethod {
			active = append(active, p)
		}
	}

	return active
}

// SortTransferHistories orders histories newest first.
func SortTransferHistories(histories []*TransferHistory) {
	sort.SliceStable(histories, func(i, j int) bool {
		return histories[i].CreatedAt.After(histories[j].CreatedAt)
	})
}

// SortDepositHistories orders histories newest first.
func SortDepositHistories(histories []*DepositHistory) {
	sort.SliceStable(histories, func(i, j int) bool {
		return histories[i].CreatedAt.After(histories[j].CreatedAt)
	})
}
