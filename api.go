package walletd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/twitchtv/twirp"
)

// Handler exposes the engine operations as a JSON API. feed may be nil to
// serve without the websocket push endpoint.
func (e *Engine) Handler(feed *Feed) http.Handler {
	m := chi.NewMux()
	m.Use(middleware.Recoverer)
	m.Use(middleware.RealIP)
	m.Use(middleware.Logger)
	m.Use(middleware.Heartbeat("/hc"))
	m.Use(cors.AllowAll().Handler)

	if e.cfg.Issuer != "" {
		m.Use(handleAuth(e.cfg.Issuer))
	}

	m.Get("/assets", e.listAssets)
	m.Get("/assets/{symbol}", e.findAsset)
	m.Get("/transactions", e.searchLedger)
	m.Get("/stats", e.readStats)
	m.Post("/deposits/address", e.depositAddress)
	m.Post("/deposits", e.createDeposit)
	m.Get("/deposits/{id}", e.findDeposit)
	m.Post("/withdrawals", e.createWithdrawal)
	m.Get("/withdrawals/{id}", e.findWithdrawal)
	m.Delete("/withdrawals/{id}", e.cancelWithdrawal)

	if feed != nil {
		m.Get("/ws", feed.HandleWebSocket)
	}

	return m
}

func renderJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)

	_ = json.NewEncoder(w).Encode(v)
}

func renderErr(w http.ResponseWriter, err error) {
	_ = twirp.WriteError(w, asTwirpErr(err))
}

func asTwirpErr(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return twirp.NewError(twirp.FailedPrecondition, err.Error())
	case errors.Is(err, ErrAssetNotFound):
		return twirp.NotFoundError(err.Error())
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidAddress),
		errors.Is(err, ErrInvalidNetwork):
		return twirp.InvalidArgument.Error(err.Error())
	default:
		return err
	}
}

func (e *Engine) listAssets(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, e.Assets())
}

func (e *Engine) findAsset(w http.ResponseWriter, r *http.Request) {
	asset, ok := e.Asset(chi.URLParam(r, "symbol"))
	if !ok {
		renderErr(w, ErrAssetNotFound)
		return
	}

	renderJSON(w, asset)
}

func (e *Engine) searchLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := TransactionFilter{
		Type:   TransactionType(q.Get("type")),
		Status: TransactionStatus(q.Get("status")),
		Asset:  q.Get("asset"),
		From:   cast.ToTime(q.Get("from")),
		To:     cast.ToTime(q.Get("to")),
	}

	txs := e.SearchTransactions(q.Get("q"), filter)

	limit := cast.ToInt(q.Get("limit"))
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}

	renderJSON(w, txs)
}

func (e *Engine) readStats(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, e.Stats())
}

func (e *Engine) depositAddress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Asset   string `json:"asset"`
		Network string `json:"network"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderErr(w, twirp.InvalidArgument.Error("invalid body"))
		return
	}

	addr, err := e.GenerateDepositAddress(r.Context(), body.Asset, body.Network)
	if err != nil {
		renderErr(w, err)
		return
	}

	renderJSON(w, addr)
}

func (e *Engine) createDeposit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Asset   string          `json:"asset"`
		Amount  decimal.Decimal `json:"amount"`
		Network string          `json:"network"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderErr(w, twirp.InvalidArgument.Error("invalid body"))
		return
	}

	dep, err := e.CreateDeposit(r.Context(), body.Asset, body.Amount, body.Network)
	if err != nil {
		renderErr(w, err)
		return
	}

	renderJSON(w, dep)
}

func (e *Engine) findDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderErr(w, twirp.InvalidArgument.Error("invalid id"))
		return
	}

	dep, ok := e.Deposit(id)
	if !ok {
		renderErr(w, twirp.NotFoundError("deposit not found"))
		return
	}

	renderJSON(w, dep)
}

func (e *Engine) createWithdrawal(w http.ResponseWriter, r *http.Request) {
	var input WithdrawalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		renderErr(w, twirp.InvalidArgument.Error("invalid body"))
		return
	}

	req, err := e.RequestWithdrawal(r.Context(), input)
	if err != nil {
		renderErr(w, err)
		return
	}

	renderJSON(w, req)
}

func (e *Engine) findWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderErr(w, twirp.InvalidArgument.Error("invalid id"))
		return
	}

	req, ok := e.Withdrawal(id)
	if !ok {
		renderErr(w, twirp.NotFoundError("withdrawal not found"))
		return
	}

	renderJSON(w, req)
}

func (e *Engine) cancelWithdrawal(w http.ResponseWriter, r *http.Request) {
	var cancelled bool
	if id, err := uuid.Parse(chi.URLParam(r, "id")); err == nil {
		cancelled = e.CancelWithdrawal(r.Context(), id)
	}

	renderJSON(w, map[string]bool{"cancelled": cancelled})
}
