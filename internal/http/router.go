package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/earth-module/tem-dashboard/internal/http/handlers"
)

// NewRouter builds full HTTP routing tree for the dashboard API and static
// frontend.
func NewRouter(api *handlers.API, live *handlers.LiveHub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Recoverer(api))
	r.Use(StripPathPrefix)
	r.Use(AccessLog(api))

	// The live feed is long-lived and must not inherit the request timeout.
	if live != nil {
		r.Get("/api/live", live.ServeWS)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(20 * time.Second))

		r.Get("/healthz", api.Health)
		r.Route("/api", func(apiRouter chi.Router) {
			apiRouter.Get("/dashboard", api.Dashboard)
			apiRouter.Get("/snapshot", api.Snapshot)
			apiRouter.Get("/stats", api.Stats)

			apiRouter.Get("/catalog/{kind}", func(w http.ResponseWriter, r *http.Request) {
				api.Catalog(w, r, chi.URLParam(r, "kind"))
			})
			apiRouter.Get("/catalog/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, err := strconv.Atoi(chi.URLParam(r, "id"))
				if err != nil {
					http.NotFound(w, r)
					return
				}
				api.Parameter(w, r, chi.URLParam(r, "kind"), id)
			})

			apiRouter.Post("/outputs/{kind}/{index}", func(w http.ResponseWriter, r *http.Request) {
				api.Assign(w, r, chi.URLParam(r, "kind"), chi.URLParam(r, "index"))
			})
			apiRouter.Post("/location", api.SetLocation)
			apiRouter.Post("/keys/{provider}", func(w http.ResponseWriter, r *http.Request) {
				api.SaveKey(w, r, chi.URLParam(r, "provider"))
			})
			apiRouter.Delete("/keys/{provider}", func(w http.ResponseWriter, r *http.Request) {
				api.DeleteKey(w, r, chi.URLParam(r, "provider"))
			})
			apiRouter.Post("/admin/restart", api.Restart)
			apiRouter.Post("/admin/reset-wifi", api.ResetWiFi)
			apiRouter.Post("/update/check", api.CheckUpdate)
			apiRouter.Post("/refresh", api.Refresh)

			apiRouter.Get("/history/samples", api.HistorySamples)
			apiRouter.Get("/history/outputs", api.HistoryOutputs)
			apiRouter.Get("/history/events", api.HistoryEvents)
		})

		r.Get("/*", api.Static)
		r.Get("/", api.Static)
	})
	return r
}
