package handlers

import (
	"net/http"

	"github.com/shouni/creative-hub/pkg/domain"
)

type credentialRequest struct {
	Key string `json:"key"`
}

type credentialResponse struct {
	Available           bool `json:"available"`
	RequireKeySelection bool `json:"require_key_selection"`
}

// GetCredential はセッションで使えるキーがあるかどうかを返します。キーそのものは返しません。
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	suite, ok := h.suite(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.credentialState(suite.KeyAvailable()))
}

// SelectCredential はセッションのキーを選択し、動画ツールを使用可能にします。
func (h *Handler) SelectCredential(w http.ResponseWriter, r *http.Request) {
	suite, ok := h.suite(w, r)
	if !ok {
		return
	}
	var req credentialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := suite.SelectKey(req.Key); err != nil {
		writeError(w, statusOf(err), domain.MessageOf(err))
		return
	}
	writeJSON(w, http.StatusOK, h.credentialState(suite.KeyAvailable()))
}

// ClearCredential は選択済みのキーを破棄します。
func (h *Handler) ClearCredential(w http.ResponseWriter, r *http.Request) {
	suite, ok := h.suite(w, r)
	if !ok {
		return
	}
	suite.ClearKey()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) credentialState(available bool) credentialResponse {
	return credentialResponse{Available: available, RequireKeySelection: h.requireKeySelection}
}
