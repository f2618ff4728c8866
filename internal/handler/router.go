package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/campusconnect/events-api/internal/auth"
	"github.com/campusconnect/events-api/internal/model"
)

// NewRouter builds the full route tree with the global middleware stack.
func NewRouter(events *EventHandler, regs *RegistrationHandler, jwtSecret []byte) chi.Router {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(CORS)                    // permissive CORS for the campus frontend

	r.Get("/health", HealthCheck)

	authenticated := auth.Middleware(jwtSecret)

	r.Route("/events", func(r chi.Router) {
		// Public reads
		r.Get("/", events.ListEvents)
		r.Get("/{id}", events.GetEvent)

		// Coordinator operations
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(auth.RequireRole(model.RoleCoordinator))
			r.Post("/", events.CreateEvent)
			r.Put("/{id}", events.UpdateEvent)
			r.Delete("/{id}", events.DeactivateEvent)
			r.Get("/coordinator/my-events", events.ListMyEvents)
		})
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Use(authenticated)

		// Student operations
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(model.RoleStudent))
			r.Post("/", regs.Register)
			r.Delete("/{id}", regs.Cancel)
			r.Get("/my-registrations", regs.ListMyRegistrations)
		})

		// Coordinator operations
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(model.RoleCoordinator))
			r.Get("/event/{eventId}", regs.ListEventRegistrations)
		})
	})

	return r
}
