package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/coin-wallet/service/exchange"
)

type Sessions interface {
	core.SessionManager
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context)
	Reconcile(ctx context.Context) error
}

type Notifications interface {
	Since(after uint64) []core.Notification
}

func New(
	sessions Sessions,
	games core.GameService,
	wallets core.WalletService,
	workflow *exchange.Workflow,
	notifications Notifications,
	logger *slog.Logger,
) *Server {
	return &Server{
		sessions:      sessions,
		games:         games,
		wallets:       wallets,
		workflow:      workflow,
		notifications: notifications,
		logger:        logger.With("server", "api"),
	}
}

type Server struct {
	sessions      Sessions
	games         core.GameService
	wallets       core.WalletService
	workflow      *exchange.Workflow
	notifications Notifications
	logger        *slog.Logger
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Post("/reconcile", s.reconcile)
	})

	r.Get("/notifications", s.listNotifications)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/games", s.listGames)
		r.Get("/games/{id}/rates", s.listRates)

		r.Route("/transfer", func(r chi.Router) {
			r.Get("/", s.getTransfer)
			r.Delete("/", s.leaveTransfer)
			r.Post("/start", s.startTransfer)
			r.Post("/amount", s.setAmount)
			r.Post("/submit", s.submitTransfer)
			r.Post("/confirm", s.confirmTransfer)
			r.Post("/cancel", s.cancelTransfer)
			r.Post("/ack", s.acknowledgeTransfer)
		})

		r.Get("/histories/transfers", s.listTransferHistories)
		r.Get("/histories/deposits", s.listDepositHistories)
		r.Get("/deposit/methods", s.listDepositMethods)
		r.Get("/deposit/packages", s.listDepositPackages)
	})

	return r
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.Snapshot().Authenticated() {
			renderError(w, core.ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// backendError reports err and expires the session when the backend rejected
// the credential of the generation the request started under.
func (s *Server) backendError(w http.ResponseWriter, r *http.Request, generation uint64, err error) {
	if core.IsAuthError(err) {
		_ = s.sessions.Expire(r.Context(), generation, err)
	} else {
		s.logger.Info("backend request failed", "path", r.URL.Path, "err", err)
	}

	renderError(w, err)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	renderData(w, s.sessions.Snapshot())
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		renderError(w, err)
		return
	}

	if err := s.sessions.Login(r.Context(), req.Username, req.Password); err != nil {
		renderError(w, err)
		return
	}

	renderData(w, s.sessions.Snapshot())
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(r.Context())
	renderData(w, s.sessions.Snapshot())
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Reconcile(r.Context()); err != nil {
		renderError(w, err)
		return
	}

	renderData(w, s.sessions.Snapshot())
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	after, _ := strconv.ParseUint(r.URL.Query().Get("after"), 10, 64)
	renderData(w, s.notifications.Since(after))
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	gen := s.sessions.Snapshot().Generation
	games, err := s.games.List(r.Context())
	if err != nil {
		s.backendError(w, r, gen, err)
		return
	}

	active := games[:0:0]
	for _, g := range games {
		if g.Active() {
			active = append(active, g)
		}
	}

	renderData(w, active)
}

func (s *Server) listRates(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || gameID <= 0 {
		renderError(w, core.ErrMissingGame)
		return
	}

	gen := s.sessions.Snapshot().Generation
	if _, err := s.games.Find(r.Context(), gameID); err != nil {
		s.backendError(w, r, gen, err)
		return
	}

	rates, err := s.wallets.ExchangeRates(r.Context(), gameID)
	if err != nil {
		s.backendError(w, r, gen, err)
		return
	}

	renderData(w, rates)
}

type transferView struct {
	exchange.View
	Quote *exchange.Quote `json:"quote,omitempty"`
}

func (s *Server) renderTransfer(w http.ResponseWriter) {
	view := transferView{View: s.workflow.View()}
	if view.State == exchange.StateAwaitingAmount && view.Amount != "" {
		view.Quote, _ = s.workflow.Quote()
	}

	renderData(w, view)
}

// renderTransferResult renders the workflow view; failures that the view
// already reflects are reported in it rather than as an http error.
func (s *Server) renderTransferResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
	case errorStatus(err) == http.StatusConflict, errorStatus(err) == http.StatusUnauthorized:
		renderError(w, err)
		return
	}

	s.renderTransfer(w)
}

func (s *Server) getTransfer(w http.ResponseWriter, r *http.Request) {
	s.renderTransfer(w)
}

func (s *Server) leaveTransfer(w http.ResponseWriter, r *http.Request) {
	s.workflow.Leave()
	s.renderTransfer(w)
}

type startRequest struct {
	GameID int64 `json:"game_id"`
}

func (s *Server) startTransfer(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		renderError(w, err)
		return
	}

	s.renderTransferResult(w, s.workflow.Start(r.Context(), req.GameID))
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) setAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		renderError(w, err)
		return
	}

	s.renderTransferResult(w, s.workflow.SetAmount(req.Amount))
}

func (s *Server) submitTransfer(w http.ResponseWriter, r *http.Request) {
	s.renderTransferResult(w, s.workflow.Submit())
}

func (s *Server) confirmTransfer(w http.ResponseWriter, r *http.Request) {
	s.renderTransferResult(w, s.workflow.Confirm(r.Context()))
}

func (s *Server) cancelTransfer(w http.ResponseWriter, r *http.Request) {
	s.renderTransferResult(w, s.workflow.Cancel())
}

func (s *Server) acknowledgeTransfer(w http.ResponseWriter, r *http.Request) {
	s.renderTransferResult(w, s.workflow.Acknowledge())
}

func (s *Server) listTransferHistories(w http.ResponseWriter, r *http.Request) {
	gen := s.sessions.Snapshot().Generation
	histories, err := s.wallets.TransferHistories(r.Context())
	if err != nil {
		s.backendError(w, r, gen, err)
		return
	}

	renderData(w, histories)
}

func (s *Server) listDepositHistories(w http.ResponseWriter, r *http.Request) {
	gen := s.sessions.Snapshot().Generation
	histories, err := s.wallets.DepositHistories(r.Context())
	if err != nil {
		s.backendError(w, r, gen, err)
		return
	}

	renderData(w, histories)
}

func (s *Server) listDepositMethods(w http.ResponseWriter, r *http.Request) {
	gen := s.sessions.Snapshot().Generation
	methods, err := s.wallets.DepositMethods(r.Context())
	if err != nil {
		s.backendError(w, r, gen, err)
		return
	}

	if kind := r.URL.Query().Get("method"); kind != "" {
		renderData(w, methods.Active(kind))
		return
	}

	renderData(w, methods)
}

func (s *Server) listDepositPackages(w http.ResponseWriter, r *http.Request) {
	gen := s.sessions.Snapshot().Generation
	packages, err := s.wallets.DepositPackages(r.Context())
	if err != nil {
		s.backendError(w, r, gen, err)
		return
	}

	if method := r.URL.Query().Get("payment_method"); method != "" {
		packages = core.ActivePackages(packages, method)
	}

	renderData(w, packages)
}
