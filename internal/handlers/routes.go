package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/guest-checkin-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth         *auth.AuthHandler
	Organization *OrganizationHandler
	Event        *EventHandler
	Guest        *GuestHandler
	Scan         *ScanHandler
	ScannerKey   *ScannerKeyHandler
}

func RegisterRoutes(r *chi.Mux, h Handlers) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.Auth.SessionRefresh)

	config := huma.DefaultConfig("Guest Check-in API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.TokenCookieName,
		},
		"scannerKey": {
			Type: "apiKey",
			In:   "header",
			Name: auth.APIKeyHeader,
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/auth/discord/login", h.Auth.HandleLogin)
	r.Get("/auth/discord/callback", h.Auth.HandleCallback)

	// Protected routes
	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"scannerKey": {}}}
	}

	huma.Get(api, "/me", h.Auth.HandleMe, secured)

	huma.Post(api, "/orgs", h.Organization.HandleCreateOrganization, secured)
	huma.Get(api, "/orgs/{org}", h.Organization.HandleGetOrganization, secured)
	huma.Put(api, "/orgs/{org}/plan", h.Organization.HandleSetPlan, secured)
	huma.Post(api, "/orgs/{org}/members", h.Organization.HandleAddMember, secured)

	huma.Post(api, "/orgs/{org}/events", h.Event.HandleCreateEvent, secured)
	huma.Get(api, "/orgs/{org}/events/{event}/stats", h.Event.HandleEventStats, secured)

	huma.Post(api, "/orgs/{org}/events/{event}/guests", h.Guest.HandleImportGuests, secured)
	huma.Get(api, "/orgs/{org}/events/{event}/guests", h.Guest.HandleListGuests, secured)
	huma.Get(api, "/orgs/{org}/events/{event}/guests/{id}/invite", h.Guest.HandleInvite, secured)
	huma.Get(api, "/orgs/{org}/events/{event}/guests/{id}/admissions", h.Guest.HandleGuestAdmissions, secured)

	huma.Post(api, "/orgs/{org}/events/{event}/sessions", h.Scan.HandleStartSession, secured)
	huma.Get(api, "/sessions/{id}", h.Scan.HandleGetSession, secured)
	huma.Post(api, "/sessions/{id}/refresh", h.Scan.HandleRefreshSession, secured)
	huma.Delete(api, "/sessions/{id}", h.Scan.HandleStopSession, secured)
	huma.Post(api, "/sessions/{id}/scan", h.Scan.HandleScan, secured)
	huma.Post(api, "/sessions/{id}/checkin", h.Scan.HandleManualCheckIn, secured)
	huma.Post(api, "/sessions/{id}/stream", h.Scan.HandleStream, secured)

	huma.Post(api, "/orgs/{org}/keys", h.ScannerKey.HandleCreate, secured)
	huma.Get(api, "/orgs/{org}/keys", h.ScannerKey.HandleList, secured)
	huma.Delete(api, "/orgs/{org}/keys/{id}", h.ScannerKey.HandleDelete, secured)

	return api
}
