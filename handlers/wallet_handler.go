package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ff-arena/tournament-platform/middleware"
	"github.com/ff-arena/tournament-platform/models"
	"github.com/ff-arena/tournament-platform/services"
)

const maxSlipSize = 5 << 20 // 5MB

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// SubmitRecharge accepts a multipart form: a "request" JSON part plus an
// optional "slip" image part.
func (h *WalletHandler) SubmitRecharge(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	if err := r.ParseMultipartForm(maxSlipSize); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}

	var input services.SubmitRechargeInput
	if err := json.Unmarshal([]byte(r.FormValue("request")), &input); err != nil {
		badRequestResponse(w, r, errors.New("request part contains invalid JSON"))
		return
	}

	var slip io.Reader
	var slipContentType string
	if file, header, err := r.FormFile("slip"); err == nil {
		defer file.Close()
		slip = file
		slipContentType = header.Header.Get("Content-Type")
	}

	request, err := h.walletService.SubmitRecharge(r.Context(), userID, input, slipContentType, slip)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil)
}

func (h *WalletHandler) SubmitWithdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	var input services.SubmitWithdrawInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.walletService.SubmitWithdraw(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil)
}

func (h *WalletHandler) ListRechargeRequests(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatusFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	requests, err := h.walletService.ListRechargeRequests(r.Context(), status)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil)
}

func (h *WalletHandler) ListWithdrawRequests(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatusFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	requests, err := h.walletService.ListWithdrawRequests(r.Context(), status)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil)
}

func (h *WalletHandler) ApproveRecharge(w http.ResponseWriter, r *http.Request) {
	h.decideRecharge(w, r, true)
}

func (h *WalletHandler) RejectRecharge(w http.ResponseWriter, r *http.Request) {
	h.decideRecharge(w, r, false)
}

func (h *WalletHandler) ApproveWithdraw(w http.ResponseWriter, r *http.Request) {
	h.decideWithdraw(w, r, true)
}

func (h *WalletHandler) RejectWithdraw(w http.ResponseWriter, r *http.Request) {
	h.decideWithdraw(w, r, false)
}

func (h *WalletHandler) decideRecharge(w http.ResponseWriter, r *http.Request, approve bool) {
	requestID, err := urlParamInt(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	var request *models.RechargeRequest
	if approve {
		request, err = h.walletService.ApproveRecharge(r.Context(), requestID, adminID)
	} else {
		request, err = h.walletService.RejectRecharge(r.Context(), requestID, adminID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil)
}

func (h *WalletHandler) decideWithdraw(w http.ResponseWriter, r *http.Request, approve bool) {
	requestID, err := urlParamInt(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	var request *models.WithdrawRequest
	if approve {
		request, err = h.walletService.ApproveWithdraw(r.Context(), requestID, adminID)
	} else {
		request, err = h.walletService.RejectWithdraw(r.Context(), requestID, adminID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil)
}

func parseStatusFilter(r *http.Request) (*models.RequestStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	status := models.RequestStatus(raw)
	switch status {
	case models.RequestPending, models.RequestApproved, models.RequestRejected:
		return &status, nil
	default:
		return nil, errors.New("invalid status filter")
	}
}
