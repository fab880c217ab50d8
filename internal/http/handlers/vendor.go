package handlers

import (
	"net/http"

	"fishball-groupbuy/internal/groupbuy"
	"fishball-groupbuy/pkg/response"
)

func (h *Handler) PriceAdjustmentPut(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	productID := readPathString(r, "productId")
	var body struct {
		Price float64 `json:"price"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.Service.AdjustPrice(r.Context(), groupID, productID, body.Price); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) ShippingStatusPut(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	var body struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.Service.UpdateShippingStatus(r.Context(), groupID, groupbuy.ShippingStatus(body.Status)); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) VendorNotesPut(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	var body struct {
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.Service.UpdateVendorNotes(r.Context(), groupID, body.Notes); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}
