package main

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelP17/HARPY-sub000/internal/httputil"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l4pack"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/seek"
	"github.com/AngelP17/HARPY-sub000/internal/version"
)

const maxBodyBytes = 64 << 10

type timeline interface {
	State() seek.State
	Meta() seek.SeekMeta
	Pause()
	Play()
	GoLive()
	Scrub(ts time.Time)
	SetRate(rate float64) error
	SetLayers(kinds []l1wire.Kind)
}

type view interface {
	SetCameraHeight(heightM float64)
	SetFilter(f l2index.FilterState) error
	SetKinds(kinds l2index.KindSet)
	Filter() l2index.FilterState
}

type latestPayload interface {
	Latest() *l4pack.RenderPayload
}

type statusHandler struct {
	timeline timeline
	view     view
	render   latestPayload
}

func newStatusMux(a *app) *http.ServeMux {
	return (&statusHandler{timeline: a.coordinator, view: a.pipeline, render: a.drain}).mux()
}

func (h *statusHandler) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/state", h.handleState)
	mux.HandleFunc("/api/timeline", h.handleTimeline)
	mux.HandleFunc("/api/camera", h.handleCamera)
	mux.HandleFunc("/api/filter", h.handleFilter)
	return mux
}

func (h *statusHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok", "version": version.Version})
}

type filterView struct {
	Kinds    []string `json:"kinds"`
	MinAlt   float64  `json:"min_alt"`
	MaxAlt   *float64 `json:"max_alt,omitempty"`
	MinSpeed float64  `json:"min_speed"`
	MaxSpeed *float64 `json:"max_speed,omitempty"`
}

type renderView struct {
	Count    int `json:"count"`
	Clusters int `json:"clusters"`
}

type stateView struct {
	Timeline seek.State    `json:"timeline"`
	Layers   []string      `json:"layers"`
	Seek     seek.SeekMeta `json:"seek"`
	Filter   filterView    `json:"filter"`
	Render   *renderView   `json:"render,omitempty"`
}

func tags(kinds []l1wire.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.Tag()
	}
	return out
}

// finite drops +Inf upper bounds, which JSON cannot carry.
func finite(v float64) *float64 {
	if v > 1e300 {
		return nil
	}
	return &v
}

func (h *statusHandler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	st := h.timeline.State()
	f := h.view.Filter()
	resp := stateView{
		Timeline: st,
		Layers:   tags(st.Layers),
		Seek:     h.timeline.Meta(),
		Filter: filterView{
			Kinds:    tags(f.AllowedKinds.Kinds()),
			MinAlt:   f.MinAlt,
			MaxAlt:   finite(f.MaxAlt),
			MinSpeed: f.MinSpeed,
			MaxSpeed: finite(f.MaxSpeed),
		},
	}
	if pl := h.render.Latest(); pl != nil {
		resp.Render = &renderView{Count: pl.Count, Clusters: pl.Clusters()}
	}
	httputil.WriteJSONOK(w, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		httputil.BadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

type timelineRequest struct {
	Action string   `json:"action"`
	TsMs   int64    `json:"ts_ms"`
	Rate   float64  `json:"rate"`
	Layers []string `json:"layers"`
}

func (h *statusHandler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	var req timelineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.Action {
	case "pause":
		h.timeline.Pause()
	case "play":
		h.timeline.Play()
	case "live":
		h.timeline.GoLive()
	case "scrub":
		if req.TsMs <= 0 {
			httputil.BadRequest(w, "scrub requires ts_ms")
			return
		}
		h.timeline.Scrub(time.UnixMilli(req.TsMs))
	case "rate":
		if err := h.timeline.SetRate(req.Rate); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	case "layers":
		kinds, err := parseTags(req.Layers)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		// Subscribed layers and the index kind filter move together.
		h.timeline.SetLayers(kinds)
		h.view.SetKinds(l2index.NewKindSet(kinds...))
	default:
		httputil.BadRequest(w, "unknown action "+req.Action)
		return
	}
	h.handleStateAfter(w)
}

func (h *statusHandler) handleStateAfter(w http.ResponseWriter) {
	st := h.timeline.State()
	httputil.WriteJSONOK(w, struct {
		Timeline seek.State    `json:"timeline"`
		Layers   []string      `json:"layers"`
		Seek     seek.SeekMeta `json:"seek"`
	}{st, tags(st.Layers), h.timeline.Meta()})
}

type cameraRequest struct {
	HeightM float64 `json:"height_m"`
}

func (h *statusHandler) handleCamera(w http.ResponseWriter, r *http.Request) {
	var req cameraRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.HeightM <= 0 {
		httputil.BadRequest(w, "height_m must be positive")
		return
	}
	h.view.SetCameraHeight(req.HeightM)
	w.WriteHeader(http.StatusNoContent)
}

type filterRequest struct {
	Kinds    []string `json:"kinds"`
	MinAlt   *float64 `json:"min_alt"`
	MaxAlt   *float64 `json:"max_alt"`
	MinSpeed *float64 `json:"min_speed"`
	MaxSpeed *float64 `json:"max_speed"`
}

func (h *statusHandler) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f := h.view.Filter()
	if req.Kinds != nil {
		kinds, err := parseTags(req.Kinds)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		f = f.WithKinds(l2index.NewKindSet(kinds...))
	}
	for _, set := range []struct {
		src *float64
		dst *float64
	}{
		{req.MinAlt, &f.MinAlt},
		{req.MaxAlt, &f.MaxAlt},
		{req.MinSpeed, &f.MinSpeed},
		{req.MaxSpeed, &f.MaxSpeed},
	} {
		if set.src != nil {
			*set.dst = *set.src
		}
	}
	if err := h.view.SetFilter(f); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTags(in []string) ([]l1wire.Kind, error) {
	kinds := make([]l1wire.Kind, 0, len(in))
	for _, tag := range in {
		k, err := l1wire.ParseKindTag(tag)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
