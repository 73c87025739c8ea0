package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/pipeline"
)

type healthResponse struct {
	Status  string `json:"status"`
	Loaded  bool   `json:"loaded"`
	Loading bool   `json:"loading"`
	LoadID  string `json:"loadId,omitempty"`
}

type companiesResponse struct {
	Total     int             `json:"total"`
	Companies []model.Company `json:"companies"`
}

func (h Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Loading: h.Backend.Loading()}
	if result, err := h.Backend.Current(); err == nil {
		resp.Loaded = true
		resp.LoadID = result.Report.LoadID
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	companies, err := h.Backend.Search(filter)
	if err != nil {
		h.writeBackendError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, companiesResponse{Total: len(companies), Companies: companies})
}

func (h Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.Backend.Company(mux.Vars(r)["id"])
	if err != nil {
		h.writeBackendError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, company)
}

func (h Handler) Filters(w http.ResponseWriter, r *http.Request) {
	result, err := h.Backend.Current()
	if err != nil {
		h.writeBackendError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result.Filters)
}

func (h Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	result, err := h.Backend.Current()
	if err != nil {
		h.writeBackendError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result.Stats)
}

func (h Handler) Reload(w http.ResponseWriter, r *http.Request) {
	result, err := h.Backend.Reload(r.Context())
	if err != nil {
		h.Logger.Error("httpapi: reload failed", zap.Error(err))
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, result.Report)
}

func (h Handler) writeBackendError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, pipeline.ErrNotLoaded):
		WriteError(w, http.StatusServiceUnavailable, "data not loaded yet")
	case eris.Is(err, pipeline.ErrNotFound):
		WriteError(w, http.StatusNotFound, "company not found")
	default:
		h.Logger.Error("httpapi: backend error", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// ParseFilter maps query parameters onto model.Filter. List parameters may
// repeat or be comma separated. near needs lat, lng and radiusKm together.
func ParseFilter(r *http.Request) (model.Filter, error) {
	q := r.URL.Query()
	filter := model.Filter{
		Query:           strings.TrimSpace(q.Get("q")),
		Sectors:         listParam(q["sector"]),
		States:          listParam(q["state"]),
		Cities:          listParam(q["city"]),
		CapabilityTypes: listParam(q["capabilityType"]),
	}
	for _, kind := range listParam(q["companyType"]) {
		filter.CompanyTypes = append(filter.CompanyTypes, model.CompanyType(strings.ToLower(kind)))
	}
	if v := q.Get("verified"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			return filter, eris.Errorf("verified: %q is not a boolean", v)
		}
		filter.VerifiedOnly = &verified
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, eris.Errorf("limit: %q is not a non-negative integer", v)
		}
		filter.Limit = limit
	}

	lat, lng, radius := q.Get("lat"), q.Get("lng"), q.Get("radiusKm")
	if lat == "" && lng == "" && radius == "" {
		return filter, nil
	}
	near := &model.Radius{}
	for _, p := range []struct {
		name  string
		value string
		dst   *float64
	}{
		{"lat", lat, &near.Latitude},
		{"lng", lng, &near.Longitude},
		{"radiusKm", radius, &near.KM},
	} {
		f, err := strconv.ParseFloat(p.value, 64)
		if err != nil {
			return filter, eris.Errorf("%s: %q is not a number", p.name, p.value)
		}
		*p.dst = f
	}
	if near.KM <= 0 {
		return filter, eris.New("radiusKm must be > 0")
	}
	filter.Near = near
	return filter, nil
}

func listParam(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
