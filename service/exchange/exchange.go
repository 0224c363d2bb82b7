package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pandodao/coin-wallet/core"
	"github.com/shopspring/decimal"
)

const (
	msgMissingGame     = "Please select a game"
	msgRateNotFound    = "No exchange rate is configured for this game"
	msgRateUnavailable = "Could not load the exchange rate, please try again"
	msgInvalidAmount   = "Please enter a valid Coin amount"
	msgTransferFailed  = "Could not transfer Coin, please try again"
	msgAmountTooLarge  = "The amount is too large"
)

type Resolver interface {
	Resolve(ctx context.Context, gameID int64) (*core.ExchangeRate, error)
}

func New(
	resolver Resolver,
	sessions core.SessionManager,
	wallets core.WalletService,
	transfers core.TransferStore,
	notifier core.Notifier,
	logger *slog.Logger,
) *Workflow {
	w := &Workflow{
		resolver:  resolver,
		sessions:  sessions,
		wallets:   wallets,
		transfers: transfers,
		notifier:  notifier,
		logger:    logger.With("service", "exchange"),
	}

	w.unsubscribe = sessions.Subscribe(w.onSession)
	return w
}

// Workflow drives one user through converting Coin into a game currency:
// rate lookup, amount entry, confirmation, submission and settlement. Every
// run has an epoch; results that come back for an older epoch are dropped.
type Workflow struct {
	resolver    Resolver
	sessions    core.SessionManager
	wallets     core.WalletService
	transfers   core.TransferStore
	notifier    core.Notifier
	logger      *slog.Logger
	unsubscribe func()

	// lock order is pub then mux, same as the session manager
	pub sync.Mutex

	mux         sync.Mutex
	epoch       uint64
	view        View
	subscribers []func(View)
}

func (w *Workflow) View() View {
	w.mux.Lock()
	defer w.mux.Unlock()

	return w.view
}

// Subscribe registers fn for every state change. fn must not call back into
// the workflow.
func (w *Workflow) Subscribe(fn func(View)) {
	w.mux.Lock()
	w.subscribers = append(w.subscribers, fn)
	w.mux.Unlock()
}

func (w *Workflow) update(fn func() bool) {
	w.pub.Lock()
	defer w.pub.Unlock()

	w.mux.Lock()
	if !fn() {
		w.mux.Unlock()
		return
	}

	w.view.Epoch = w.epoch
	view := w.view
	subscribers := append(([]func(View))(nil), w.subscribers...)
	w.mux.Unlock()

	for _, s := range subscribers {
		s(view)
	}
}

func (w *Workflow) onSession(s core.Session) {
	if s.Authenticated() {
		return
	}

	w.update(func() bool {
		if w.view.State == StateIdle {
			return false
		}

		w.logger.Info("session lost, workflow collapsed", "state", w.view.State)
		w.epoch++
		w.view = View{State: StateIdle}
		return true
	})
}

// Leave abandons the current run. A submission still in flight is discarded
// when it returns.
func (w *Workflow) Leave() {
	w.update(func() bool {
		if w.view.State == StateIdle {
			return false
		}

		w.epoch++
		w.view = View{State: StateIdle}
		return true
	})
}

func (w *Workflow) Close() {
	w.Leave()
	w.unsubscribe()
}

func (w *Workflow) authenticated() (uint64, bool) {
	s := w.sessions.Snapshot()
	if !s.Authenticated() {
		w.Leave()
		return s.Generation, false
	}

	return s.Generation, true
}

// Start begins a new run for the game, resolving its exchange rate.
func (w *Workflow) Start(ctx context.Context, gameID int64) error {
	gen, ok := w.authenticated()
	if !ok {
		return core.ErrUnauthenticated
	}

	var (
		epoch uint64
		busy  bool
	)

	w.update(func() bool {
		if w.view.State == StateSubmitting {
			busy = true
			return false
		}

		w.epoch++
		epoch = w.epoch
		if gameID <= 0 {
			w.view = View{State: StateFailed, Message: msgMissingGame}
		} else {
			w.view = View{State: StateRateLoading, GameID: gameID}
		}
		return true
	})

	if busy {
		return core.ErrInvalidState
	}

	if gameID <= 0 {
		w.notifier.Notify(core.NotifyError, msgMissingGame)
		return core.ErrMissingGame
	}

	rate, err := w.resolver.Resolve(ctx, gameID)

	var (
		stale bool
		msg   string
	)

	w.update(func() bool {
		if w.epoch != epoch {
			stale = true
			return false
		}

		if err != nil {
			msg = rateMessage(err)
			w.view.State = StateFailed
			w.view.Message = msg
			return true
		}

		w.view.State = StateAwaitingAmount
		w.view.Rate = rate
		return true
	})

	if stale {
		w.logger.Debug("discard stale rate", "game", gameID)
		return core.ErrWorkflowCancelled
	}

	if err != nil {
		w.logger.Info("resolver.Resolve", "game", gameID, "err", err)
		if core.IsAuthError(err) {
			_ = w.sessions.Expire(ctx, gen, err)
		} else {
			w.notifier.Notify(core.NotifyError, msg)
		}

		return err
	}

	return nil
}

func rateMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrRateNotFound):
		return msgRateNotFound
	default:
		return core.ErrorMessage(err, msgRateUnavailable)
	}
}

// SetAmount records the user's amount text. It is allowed while waiting for
// an amount and after a failed settlement, which keeps the previous input.
func (w *Workflow) SetAmount(text string) error {
	var invalid bool
	w.update(func() bool {
		if !w.editable() {
			invalid = true
			return false
		}

		w.view.State = StateAwaitingAmount
		w.view.Outcome = OutcomeNone
		w.view.Amount = text
		w.view.InputError = ""
		w.view.Message = ""
		w.view.Request = nil
		return true
	})

	if invalid {
		return core.ErrInvalidState
	}

	return nil
}

func (w *Workflow) editable() bool {
	switch w.view.State {
	case StateAwaitingAmount:
		return true
	case StateSettled:
		return w.view.Outcome == OutcomeFailure
	default:
		return false
	}
}

// Quote projects the entered amount without changing state.
func (w *Workflow) Quote() (*Quote, error) {
	w.mux.Lock()
	rate, text := w.view.Rate, w.view.Amount
	w.mux.Unlock()

	if rate == nil {
		return nil, core.ErrInvalidState
	}

	amount, err := parseAmount(text, rate)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Amount:       amount,
		TargetAmount: core.ProjectTarget(amount, rate.Rate),
		Currency:     rate.CurrencyName(),
		Rate:         rate.Rate,
		MinTransfer:  rate.MinTransfer,
	}, nil
}

func parseAmount(text string, rate *core.ExchangeRate) (decimal.Decimal, *ValidationError) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, &ValidationError{Reason: msgInvalidAmount}
	}

	amount, err := decimal.NewFromString(text)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, &ValidationError{Reason: msgInvalidAmount}
	}

	if amount.LessThan(rate.MinTransfer) {
		return decimal.Zero, &ValidationError{
			Reason:  fmt.Sprintf("Minimum transfer is %s Coin", rate.MinTransfer),
			Minimum: rate.MinTransfer,
		}
	}

	if !core.TargetInRange(amount, rate.Rate) {
		return decimal.Zero, &ValidationError{Reason: msgAmountTooLarge}
	}

	return amount, nil
}

// Submit validates the entered amount locally and asks for confirmation.
func (w *Workflow) Submit() error {
	if _, ok := w.authenticated(); !ok {
		return core.ErrUnauthenticated
	}

	var (
		invalid bool
		verr    *ValidationError
	)

	w.update(func() bool {
		if !w.editable() {
			invalid = true
			return false
		}

		w.view.Outcome = OutcomeNone
		w.view.Message = ""

		var amount decimal.Decimal
		if amount, verr = parseAmount(w.view.Amount, w.view.Rate); verr != nil {
			w.view.State = StateAwaitingAmount
			w.view.InputError = verr.Reason
			w.view.Request = nil
			return true
		}

		w.view.State = StateConfirmPending
		w.view.InputError = ""
		w.view.Request = core.NewTransferRequest(w.view.GameID, amount, w.view.Rate)
		return true
	})

	if invalid {
		return core.ErrInvalidState
	}

	if verr != nil {
		w.notifier.Notify(core.NotifyValidation, verr.Reason)
		return verr
	}

	return nil
}

// Cancel leaves the confirmation, keeping the entered amount. It is ignored
// while a submission is in flight.
func (w *Workflow) Cancel() error {
	var invalid bool
	w.update(func() bool {
		switch w.view.State {
		case StateConfirmPending:
			w.view.State = StateAwaitingAmount
			w.view.Request = nil
			return true
		case StateSubmitting:
			return false
		default:
			invalid = true
			return false
		}
	})

	if invalid {
		return core.ErrInvalidState
	}

	return nil
}

// Confirm submits the pending request. At most one submission is in flight
// per workflow; confirming again while submitting does nothing.
func (w *Workflow) Confirm(ctx context.Context) error {
	gen, ok := w.authenticated()
	if !ok {
		return core.ErrUnauthenticated
	}

	var (
		epoch   uint64
		req     *core.TransferRequest
		invalid bool
	)

	w.update(func() bool {
		switch w.view.State {
		case StateConfirmPending:
		case StateSubmitting:
			return false
		default:
			invalid = true
			return false
		}

		epoch = w.epoch
		req = w.view.Request
		w.view.State = StateSubmitting
		return true
	})

	if invalid {
		return core.ErrInvalidState
	}

	if req == nil {
		w.logger.Debug("confirm ignored, submission in flight")
		return nil
	}

	// once confirmed the submission runs to completion, the backend may have
	// debited already when the caller goes away
	ctx = context.WithoutCancel(ctx)

	logger := w.logger.With("game", req.GameID, "amount", req.Amount)
	logger.Info("submit transfer", "target", req.TargetAmount)

	entry := w.journal(ctx, req)
	result, err := w.wallets.TransferToGame(ctx, req.GameID, req.Amount)
	w.settleJournal(ctx, entry, result, err)

	var (
		stale bool
		msg   string
	)

	w.update(func() bool {
		if w.epoch != epoch {
			stale = true
			return false
		}

		w.view.State = StateSettled
		if err != nil {
			msg = core.ErrorMessage(err, msgTransferFailed)
			w.view.Outcome = OutcomeFailure
			w.view.Message = msg
			return true
		}

		msg = fmt.Sprintf("Transferred %s Coin to the game. You will receive %d %s",
			req.Amount, req.TargetAmount, req.Rate.CurrencyName())
		w.view.Outcome = OutcomeSuccess
		w.view.Message = msg
		w.view.Amount = ""
		w.view.Transfer = result
		return true
	})

	if stale {
		transfersTotal.WithLabelValues("discarded").Inc()
		logger.Info("discard late submission result", "err", err)
		return core.ErrWorkflowCancelled
	}

	if err != nil {
		transfersTotal.WithLabelValues(OutcomeFailure.String()).Inc()
		logger.Info("wallets.TransferToGame", "err", err)
		if core.IsAuthError(err) {
			_ = w.sessions.Expire(ctx, gen, err)
		} else {
			w.notifier.Notify(core.NotifyError, msg)
		}

		return err
	}

	transfersTotal.WithLabelValues(OutcomeSuccess.String()).Inc()
	w.notifier.Notify(core.NotifySuccess, msg)

	if err := w.sessions.Refresh(ctx); err != nil {
		logger.Info("sessions.Refresh after transfer", "err", err)
	}

	return nil
}

// Acknowledge closes a settled or failed run. A failed settlement returns to
// amount entry with the input intact; anything else returns to idle.
func (w *Workflow) Acknowledge() error {
	var invalid bool
	w.update(func() bool {
		switch {
		case w.view.State == StateSettled && w.view.Outcome == OutcomeFailure:
			w.view.State = StateAwaitingAmount
			w.view.Outcome = OutcomeNone
			w.view.Message = ""
			w.view.Request = nil
		case w.view.State == StateSettled, w.view.State == StateFailed:
			w.epoch++
			w.view = View{State: StateIdle}
		default:
			invalid = true
			return false
		}

		return true
	})

	if invalid {
		return core.ErrInvalidState
	}

	return nil
}

func (w *Workflow) journal(ctx context.Context, req *core.TransferRequest) *core.Transfer {
	entry := &core.Transfer{
		CreatedAt:    time.Now(),
		TraceID:      uuid.NewString(),
		Status:       core.TransferStatusPending,
		GameID:       req.GameID,
		Amount:       req.Amount,
		TargetAmount: req.TargetAmount,
		Rate:         req.Rate.Rate,
	}

	if err := w.transfers.Create(ctx, entry); err != nil {
		w.logger.Error("transfers.Create", "trace", entry.TraceID, "err", err)
		return nil
	}

	return entry
}

// settleJournal records what the backend answered, even for discarded runs:
// the transfer happened server side either way.
func (w *Workflow) settleJournal(ctx context.Context, entry *core.Transfer, result *core.TransferHistory, err error) {
	if entry == nil {
		return
	}

	to := core.TransferStatusCompleted
	switch {
	case err != nil:
		to = core.TransferStatusFailed
		entry.Message = core.ErrorMessage(err, err.Error())
	case result != nil:
		entry.RemoteID = result.ID
		to = remoteStatus(result.Status)
	}

	if err := w.transfers.UpdateStatus(ctx, entry, to); err != nil {
		w.logger.Error("transfers.UpdateStatus", "trace", entry.TraceID, "err", err)
	}
}

func remoteStatus(status string) core.TransferStatus {
	switch status {
	case core.RemoteStatusPending:
		return core.TransferStatusAccepted
	case core.RemoteStatusFailed, core.RemoteStatusCancelled:
		return core.TransferStatusFailed
	default:
		return core.TransferStatusCompleted
	}
}
