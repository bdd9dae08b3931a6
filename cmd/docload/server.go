package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/docload/chatbackup"
	"github.com/hazyhaar/docload/chatconv"
	"github.com/hazyhaar/docload/docpipe"
	"github.com/hazyhaar/docload/horosafe"
	"github.com/hazyhaar/docload/idgen"
	"github.com/hazyhaar/docload/shield"
)

const maxChatImport = 16 << 20

type server struct {
	pipe      *docpipe.Pipeline
	conv      *chatconv.Converter
	backups   *chatbackup.Store
	logger    *slog.Logger
	maxUpload int64
	newReqID  idgen.Generator
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range shield.APIStack(s.logger, s.newReqID, max(s.maxUpload+1<<20, maxChatImport)) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/documents", func(r chi.Router) {
		r.Post("/", s.handleLoad)
		r.Post("/classify", s.handleClassify)
		r.Get("/formats", s.handleFormats)
	})

	r.Route("/v1/chats", func(r chi.Router) {
		r.Post("/import", s.handleChatImport)
		r.Get("/{id}", s.handleChatGet)
	})
	return r
}

func (s *server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	contentType := r.FormValue("content_type")
	if contentType == "" {
		contentType = header.Header.Get("Content-Type")
		if contentType == "application/octet-stream" {
			contentType = ""
		}
	}

	dir, err := os.MkdirTemp("", "docload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.RemoveAll(dir)

	// The bytes land under a fixed name; classification uses header.Filename.
	path, err := horosafe.SafePath(dir, "upload")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := saveUpload(path, file); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	docs, err := s.pipe.Load(r.Context(), docpipe.File{Filename: header.Filename, ContentType: contentType, Path: path})
	if err != nil {
		shield.GetLogger(r.Context()).Warn("docload: load failed", "filename", header.Filename, "error", err)
		writeError(w, loadStatus(err), err)
		return
	}
	if docs == nil {
		docs = []docpipe.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func loadStatus(err error) int {
	var ese *docpipe.ExtractionServiceError
	if errors.As(err, &ese) {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

func saveUpload(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req docpipe.File
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, errors.New("filename is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"kind": string(s.pipe.Classify(req))})
}

func (s *server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formats": docpipe.SupportedFormats(),
		"kinds":   docpipe.SupportedKinds(),
	})
}

func (s *server) handleChatImport(w http.ResponseWriter, r *http.Request) {
	data, err := horosafe.LimitedReadAll(r.Body, maxChatImport)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	rec, err := s.conv.ConvertJSON(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.backups.Insert(r.Context(), rec)
	if errors.Is(err, chatbackup.ErrConflict) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		shield.GetLogger(r.Context()).Error("docload: chat backup failed", "id", rec.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	shield.GetLogger(r.Context()).Info("docload: chat imported", "id", b.ID, "messages", len(b.Chat.Messages))
	writeJSON(w, http.StatusCreated, b)
}

func (s *server) handleChatGet(w http.ResponseWriter, r *http.Request) {
	b, err := s.backups.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, errors.New("not found"))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
