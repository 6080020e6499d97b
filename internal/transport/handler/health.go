package handler

import (
	"net/http"
	"time"

	"github.com/pep299/iracify/internal/transport/response"
)

type Health struct {
	version  string
	provider string
}

func NewHealth(version, provider string) *Health {
	return &Health{version: version, provider: provider}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, response.Response{
		Status: "ok",
		Data: map[string]interface{}{
			"timestamp": time.Now().Unix(),
			"version":   h.version,
			"provider":  h.provider,
		},
	})
}
