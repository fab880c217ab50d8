package handlers

import (
	"net/http"

	"fishball-groupbuy/pkg/response"
)

type saveOrderRequest struct {
	MemberName string         `json:"memberName"`
	Items      map[string]int `json:"items"`
}

func (h *Handler) OrderCreate(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	var body saveOrderRequest
	if !decodeBody(w, r, &body) {
		return
	}

	orderID, err := h.Service.SaveOrder(r.Context(), groupID, "", body.MemberName, body.Items)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.Created(w, map[string]any{"orderId": orderID})
}

func (h *Handler) OrderUpdate(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	orderID := readPathString(r, "orderId")
	var body saveOrderRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if _, err := h.Service.SaveOrder(r.Context(), groupID, orderID, body.MemberName, body.Items); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, map[string]any{"orderId": orderID})
}

func (h *Handler) OrderDelete(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	orderID := readPathString(r, "orderId")

	resetID, err := h.Service.DeleteOrder(r.Context(), groupID, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if resetID != "" {
		// Sole order was reset in place of removal.
		response.Success(w, map[string]any{"resetOrderId": resetID})
		return
	}
	response.Success(w, nil)
}

func (h *Handler) MemberAdd(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	orderID, err := h.Service.AddMember(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.Created(w, map[string]any{"orderId": orderID})
}
