package admin

import (
	"errors"
	"net/http"
	"net/url"

	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	ctrl application.Controller
	log  zerolog.Logger
}

func NewHandler(ctrl application.Controller, log zerolog.Logger) *Handler {
	return &Handler{ctrl: ctrl, log: log}
}

// NewRouter monta as rotas de administração:
//
//	PUT  /quotas/{principal}/{resource}
//	GET  /quotas/{principal}
//	GET  /quotas/{principal}/{resource}
//	GET  /usage/{principal}
//	GET  /usage/{principal}/{resource}
//	POST /check
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/quotas/{principal}", func(r chi.Router) {
		r.Get("/", h.ListQuotas)
		r.Put("/{resource}", h.SetQuota)
		r.Get("/{resource}", h.GetQuota)
	})
	r.Route("/usage/{principal}", func(r chi.Router) {
		r.Get("/", h.GetAllUsage)
		r.Get("/{resource}", h.GetUsage)
	})
	r.Post("/check", h.Check)
	return r
}

// principalParam devolve o principal já decodificado. O chi roteia sobre
// RawPath quando ele existe, e aí o parâmetro chega ainda escapado.
func principalParam(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	v := chi.URLParam(r, "principal")
	if r.URL.RawPath != "" {
		u, err := url.PathUnescape(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid principal: "+err.Error())
			return "", false
		}
		v = u
	}
	return domain.Principal(v), true
}

func resourceParam(w http.ResponseWriter, r *http.Request) (domain.ResourceType, bool) {
	rt, err := domain.ParseResourceType(chi.URLParam(r, "resource"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return rt, true
}

func (h *Handler) SetQuota(w http.ResponseWriter, r *http.Request) {
	rt, ok := resourceParam(w, r)
	if !ok {
		return
	}
	var req SetQuotaRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := principalParam(w, r)
	if !ok {
		return
	}
	q := domain.ResourceQuota{Type: rt, Limit: *req.Limit, Unit: req.Unit}
	h.ctrl.SetQuota(p, q)
	h.log.Info().Str("principal", string(p)).Str("resource", rt.String()).Int64("limit", q.Limit).Msg("quota set")

	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	rt, ok := resourceParam(w, r)
	if !ok {
		return
	}
	p, ok := principalParam(w, r)
	if !ok {
		return
	}
	q, found := h.ctrl.GetQuota(p, rt)
	if !found {
		writeError(w, http.StatusNotFound, "no quota configured")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) ListQuotas(w http.ResponseWriter, r *http.Request) {
	p, ok := principalParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.ListQuotas(p))
}

func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	rt, ok := resourceParam(w, r)
	if !ok {
		return
	}
	p, ok := principalParam(w, r)
	if !ok {
		return
	}
	u, found := h.ctrl.GetUsage(p, rt)
	if !found {
		writeError(w, http.StatusNotFound, "no usage recorded")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) GetAllUsage(w http.ResponseWriter, r *http.Request) {
	p, ok := principalParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.GetAllUsage(p))
}

// Check avalia uma admissão hipotética sem registrar uso.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt, err := domain.ParseResourceType(req.Resource)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := domain.Principal(req.Principal)
	if p == "" {
		p = domain.Anonymous
	}

	allowed, err := h.ctrl.CheckQuota(p, rt, req.RequestedAmount)
	resp := CheckResponse{Allowed: allowed}
	if err != nil && !errors.Is(err, domain.ErrQuotaExceeded) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil {
		resp.Reason = err.Error()
	}
	if q, ok := h.ctrl.GetQuota(p, rt); ok {
		resp.Quota = &q
	}
	writeJSON(w, http.StatusOK, resp)
}
