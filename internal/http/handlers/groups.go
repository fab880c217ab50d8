package handlers

import (
	"net/http"

	"fishball-groupbuy/internal/aggregate"
	"fishball-groupbuy/internal/catalog"
	"fishball-groupbuy/internal/groupbuy"
	"fishball-groupbuy/pkg/response"
)

func (h *Handler) GroupCreate(w http.ResponseWriter, r *http.Request) {
	var params groupbuy.CreateGroupParams
	if !decodeBody(w, r, &params) {
		return
	}

	created, err := h.Service.CreateGroup(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// The only time the leader token ever leaves the service.
	response.Created(w, created)
}

func (h *Handler) GroupList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Service.ListGroups(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, summaries)
}

func (h *Handler) GroupGet(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	group, err := h.Service.GetGroup(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, group.Redacted())
}

func (h *Handler) GroupInfoPatch(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	var updates groupbuy.InfoUpdates
	if !decodeBody(w, r, &updates) {
		return
	}
	if err := h.Service.UpdateGroupInfo(r.Context(), groupID, updates); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) GroupLeaderNotesPut(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	var body struct {
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.Service.UpdateLeaderNotes(r.Context(), groupID, body.Notes); err != nil {
		writeDomainError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *Handler) GroupAggregate(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	group, err := h.Service.GetGroup(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result := aggregate.Compute(group.Orders, group.VendorNotes.PriceAdjustments)
	response.Success(w, result)
}

func (h *Handler) GroupVerifyToken(w http.ResponseWriter, r *http.Request) {
	groupID := readPathString(r, "groupId")
	var body struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	ok, err := h.Service.VerifyLeaderToken(r.Context(), groupID, body.Token)
	if err != nil {
		// Read failure, not a mismatch. Clients must keep their cached token.
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeDomainError(w, groupbuy.AccessDeniedError())
		return
	}
	response.Success(w, map[string]any{"verified": true})
}

func (h *Handler) CatalogGet(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, catalog.Products())
}
