package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/habits/internal/common"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: a.now().UTC().Format(time.RFC3339Nano),
		Service:   common.ServiceName,
	})
}
