package handlers

import (
	"net/http"

	"github.com/ff-arena/tournament-platform/middleware"
	"github.com/ff-arena/tournament-platform/services"
)

type NoticeHandler struct {
	noticeService services.NoticeService
}

func NewNoticeHandler(noticeService services.NoticeService) *NoticeHandler {
	return &NoticeHandler{noticeService: noticeService}
}

func (h *NoticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	var input services.CreateNoticeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	notice, err := h.noticeService.CreateNotice(r.Context(), adminID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"notice": notice}, nil)
}

func (h *NoticeHandler) List(w http.ResponseWriter, r *http.Request) {
	notices, err := h.noticeService.ListNotices(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"notices": notices}, nil)
}

func (h *NoticeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "noticeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.noticeService.DeleteNotice(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NoticeHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	notifications, err := h.noticeService.ListNotifications(r.Context(), userID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"notifications": notifications}, nil)
}

func (h *NoticeHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	id, err := urlParamInt(r, "notificationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.noticeService.MarkNotificationRead(r.Context(), userID, id); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "notification marked read"}, nil)
}
