package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oxtoacart/bpool"
	"github.com/pandodao/coin-wallet/core"
	"github.com/pandodao/coin-wallet/service/exchange"
	"github.com/pandodao/coin-wallet/store"
)

var buffers = bpool.NewBufferPool(64)

type errorView struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	b := buffers.Get()
	defer buffers.Put(b)

	if err := json.NewEncoder(b).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = b.WriteTo(w)
}

func renderData(w http.ResponseWriter, data any) {
	renderJSON(w, http.StatusOK, map[string]any{"data": data})
}

func renderError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	renderJSON(w, status, map[string]any{
		"error": errorView{
			Code:    status,
			Message: core.ErrorMessage(err, err.Error()),
		},
	})
}

func errorStatus(err error) int {
	var (
		verr   *exchange.ValidationError
		apiErr *core.APIError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnauthenticated), core.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrInvalidState), errors.Is(err, core.ErrWorkflowCancelled):
		return http.StatusConflict
	case errors.Is(err, core.ErrMissingGame), errors.Is(err, core.ErrRateNotFound), store.IsErrNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &exchange.ValidationError{Reason: "invalid request body"}
	}

	return nil
}
