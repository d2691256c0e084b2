package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/acorn-io/dnswatch/pkg/backend"
	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/acorn-io/dnswatch/pkg/resolver"
	"github.com/acorn-io/dnswatch/pkg/version"
	"github.com/gorilla/mux"
)

type handler struct {
	backend backend.Backend
}

func newHandler(b backend.Backend) *handler {
	return &handler{
		backend: b,
	}
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	v := version.Get()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success": false}`))
	}
}

func (h *handler) check(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r.Context())
	log.Info("check cycle requested")
	status := h.backend.Check(r.Context())
	log.WithField("status", status.Code).Info(status.Message)

	resp := model.CheckResponse{
		Status:  status.Code,
		Message: status.Message,
	}
	for _, o := range status.Report.Outcomes {
		d := model.DomainResponse{
			Name:  o.Domain,
			State: string(o.State),
		}
		for _, err := range o.Errors() {
			d.Errors = append(d.Errors, err.Error())
		}
		resp.Domains = append(resp.Domains, d)
	}

	writeJSON(w, status.Code, resp)
}

func (h *handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	snapshot, ok, err := h.backend.GetSnapshot(r.Context(), domain)
	if err != nil {
		handleError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no records stored for %s", domain))
		return
	}

	writeSuccess(w, model.SnapshotResponse{Domain: domain, Records: snapshot})
}

func (h *handler) getChanges(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	events, err := h.backend.GetChanges(r.Context(), domain)
	if err != nil {
		handleError(w, err)
		return
	}
	if events == nil {
		events = []model.ChangeEvent{}
	}

	writeSuccess(w, events)
}

func handleError(w http.ResponseWriter, err error) {
	if errors.Is(err, resolver.ErrInvalidDomain) {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}
