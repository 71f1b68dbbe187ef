package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/auth"
)

// DefaultMaxBodySize bounds request payloads when HandlerConfig.MaxBodySize is zero.
const DefaultMaxBodySize int64 = 5 << 20

// Service is the fragment API the handlers need. *fragments.Manager implements it.
type Service interface {
	Create(ctx context.Context, owner fragments.OwnerID, contentType string, payload []byte) (fragments.Fragment, error)
	ByID(ctx context.Context, owner fragments.OwnerID, id string) (fragments.Fragment, error)
	ByUser(ctx context.Context, owner fragments.OwnerID, expand bool) (fragments.Listing, error)
	Payload(ctx context.Context, f fragments.Fragment) ([]byte, error)
	SetPayload(ctx context.Context, f *fragments.Fragment, payload []byte) error
	Delete(ctx context.Context, owner fragments.OwnerID, id string) error
	Convert(f fragments.Fragment, payload []byte, ext string) (fragments.Rendition, error)
	Formats(f fragments.Fragment) []string
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// APIURL prefixes Location headers. When empty the request host is used.
	APIURL      string
	MaxBodySize int64
	Version     string
	Resolver    auth.Resolver
	CORS        CORSConfig
}

// Handler provides the HTTP API for fragments.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")

	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with the health route and the authenticated
// /v1/fragments routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/", h.handleHealth)

	r.Route("/v1/fragments", func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Resolver))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/info", h.handleInfo)
		r.Put("/{id}", h.handlePut)
		r.Delete("/{id}", h.handleDelete)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	WriteOK(w, r, http.StatusOK, map[string]any{
		"service": "fragments",
		"version": h.config.Version,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	expand, _ := strconv.ParseBool(r.URL.Query().Get("expand"))

	listing, err := h.service.ByUser(r.Context(), owner, expand)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteOK(w, r, http.StatusOK, map[string]any{"fragments": listing})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		HandleError(w, r, fmt.Errorf("%w: missing Content-Type", fragments.ErrUnsupportedType))
		return
	}

	payload, err := h.readBody(w, r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	f, err := h.service.Create(r.Context(), owner, contentType, payload)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", h.location(r, f.ID))
	WriteOK(w, r, http.StatusCreated, map[string]any{"fragment": f})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	id, ext, hasExt := splitExtension(chi.URLParam(r, "id"))

	f, err := h.service.ByID(r.Context(), owner, id)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	payload, err := h.service.Payload(r.Context(), f)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	contentType := f.Type
	if hasExt {
		rendition, convErr := h.service.Convert(f, payload, ext)
		if convErr != nil {
			HandleError(w, r, convErr)
			return
		}
		payload, contentType = rendition.Data, rendition.ContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	f, err := h.service.ByID(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteOK(w, r, http.StatusOK, map[string]any{
		"fragment": f,
		"formats":  h.service.Formats(f),
	})
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	f, err := h.service.ByID(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	base, err := fragments.BaseType(r.Header.Get("Content-Type"))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if base != f.MimeType() {
		HandleError(w, r, fmt.Errorf("%w: content type %s does not match fragment type %s", fragments.ErrInvalidInput, base, f.MimeType()))
		return
	}

	payload, err := h.readBody(w, r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.service.SetPayload(r.Context(), &f, payload); err != nil {
		HandleError(w, r, err)
		return
	}

	WriteOK(w, r, http.StatusOK, map[string]any{
		"fragment": f,
		"formats":  h.service.Formats(f),
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), owner, id); err != nil {
		HandleError(w, r, err)
		return
	}

	WriteOK(w, r, http.StatusOK, map[string]any{"fragmentId": id})
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodySize)
	defer func() { _ = body.Close() }()

	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return payload, nil
}

func (h *Handler) location(r *http.Request, id string) string {
	base := h.config.APIURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/v1/fragments/" + id
}

// splitExtension splits "id.ext" on the last dot.
func splitExtension(param string) (id, ext string, ok bool) {
	i := strings.LastIndexByte(param, '.')
	if i < 0 {
		return param, "", false
	}
	return param[:i], param[i+1:], true
}
