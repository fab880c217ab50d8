package handlers

import (
	"net/http"

	"fishball-groupbuy/pkg/response"
)

// Workflow transitions are thin: the service validates the state machine and
// either writes the transition or returns the typed rejection.

func (h *Handler) GroupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.SubmitToVendor(r.Context(), readPathString(r, "groupId")); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) GroupCancelSubmission(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CancelSubmission(r.Context(), readPathString(r, "groupId")); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) GroupConfirm(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ConfirmOrder(r.Context(), readPathString(r, "groupId")); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) GroupCancelConfirmation(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CancelConfirmation(r.Context(), readPathString(r, "groupId")); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) GroupClose(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CloseGroup(r.Context(), readPathString(r, "groupId")); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) GroupComplete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CompleteGroup(r.Context(), readPathString(r, "groupId")); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}
