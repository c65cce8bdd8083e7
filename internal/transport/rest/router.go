package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"taxnavo/internal/service"
	"taxnavo/internal/transport/rest/handler"
	"taxnavo/internal/transport/rest/middleware"
	"taxnavo/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService          *service.AuthService
	QuestionnaireService *service.QuestionnaireService
	ProfileService       *service.ProfileService
	DocumentService      *service.DocumentService
	WSHub                *ws.Hub
	CORS                 CORSConfig
	Logger               *zap.Logger
}

// CORSConfig lists the values sent in CORS response headers
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()
	logger := c.Logger.Named("http")

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, logger)
	questionnaireHandler := handler.NewQuestionnaireHandler(c.QuestionnaireService, logger)
	profileHandler := handler.NewProfileHandler(c.ProfileService, logger)
	documentHandler := handler.NewDocumentHandler(c.DocumentService, logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, logger)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORS))
	r.Use(accessLog(logger))

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/years", questionnaireHandler.Years).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/questionnaires", wsHandler.QuestionnaireWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}).Methods("GET")

	// User routes (require user auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/questionnaires/{year:[0-9]+}", questionnaireHandler.State).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/{year:[0-9]+}/answers", questionnaireHandler.Answers).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/{year:[0-9]+}/answers", questionnaireHandler.RecordAnswer).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/{year:[0-9]+}/advance", questionnaireHandler.Advance).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/{year:[0-9]+}/retreat", questionnaireHandler.Retreat).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/{year:[0-9]+}/seek", questionnaireHandler.Seek).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/{year:[0-9]+}/save", questionnaireHandler.Save).Methods("PUT", "OPTIONS")
	userRoutes.HandleFunc("/questionnaires/{year:[0-9]+}/documents", documentHandler.Checklist).Methods("GET", "OPTIONS")

	userRoutes.HandleFunc("/profile", profileHandler.Get).Methods("GET", "OPTIONS")

	userRoutes.HandleFunc("/documents", documentHandler.Upload).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/documents", documentHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/documents/{id}", documentHandler.Delete).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(cfg CORSConfig) mux.MiddlewareFunc {
	origins := strings.Join(cfg.AllowedOrigins, ", ")
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func accessLog(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// WebSocket upgrades need the raw writer's Hijacker
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
			)
		})
	}
}
