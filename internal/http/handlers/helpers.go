package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"fishball-groupbuy/internal/groupbuy"
	"fishball-groupbuy/pkg/response"

	"github.com/go-chi/chi/v5"
)

func readPathString(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, err *groupbuy.Error) {
	response.Error(w, err.StatusCode, string(err.Code), err.Message)
}
