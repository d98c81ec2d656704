package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/filekeep/server/internal/middleware"
	"github.com/filekeep/server/internal/model"
	"github.com/filekeep/server/internal/repo"
	"github.com/filekeep/server/internal/storage"
)

// maxUploadSize caps a single upload at 50MB.
const maxUploadSize = 50 << 20

// FileHandler handles file metadata endpoints
type FileHandler struct {
	fileRepo repo.FileRepo
	store    *storage.DiskStore
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileRepo repo.FileRepo, store *storage.DiskStore) *FileHandler {
	return &FileHandler{fileRepo: fileRepo, store: store}
}

// fileInfoResponse is the per-file object in API responses
type fileInfoResponse struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	Extension  string `json:"extension,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	Size       string `json:"size"`
	UploadDate string `json:"uploadDate"`
}

func fileInfo(f model.File, full bool) fileInfoResponse {
	info := fileInfoResponse{
		ID:         f.ID,
		Filename:   f.OriginalName,
		Size:       f.ReadableSize(),
		UploadDate: f.UploadDate.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
	if full {
		info.Extension = f.Extension
		info.MimeType = f.MimeType
	}
	return info
}

// HandleUpload handles POST /api/file/upload
func (h *FileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	part, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer part.Close()

	storedName, err := h.store.Save(part, header.Filename)
	if err != nil {
		log.Printf("Upload error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	file, err := h.fileRepo.Create(r.Context(), model.File{
		UserID:       identity.UserID,
		Filename:     storedName,
		OriginalName: header.Filename,
		Extension:    filepath.Ext(header.Filename),
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	})
	if err != nil {
		_ = h.store.Remove(storedName)
		log.Printf("Upload error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusCreated, fileInfo(file, false))
}

// listResponse is the JSON response for GET /api/file/list
type listResponse struct {
	Files      []fileInfoResponse `json:"files"`
	Pagination paginationResponse `json:"pagination"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	ListSize   int   `json:"listSize"`
	TotalPages int64 `json:"totalPages"`
}

// HandleList handles GET /api/file/list with page/list_size pagination
func (h *FileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	listSize := queryInt(r, "list_size", 10)
	page := queryInt(r, "page", 1)
	if listSize < 1 {
		listSize = 10
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * listSize

	files, err := h.fileRepo.ListByUser(r.Context(), identity.UserID, listSize, offset)
	if err != nil {
		log.Printf("List files error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	total, err := h.fileRepo.CountByUser(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("List files error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	infos := make([]fileInfoResponse, 0, len(files))
	for _, f := range files {
		infos = append(infos, fileInfo(f, true))
	}

	totalPages := total / int64(listSize)
	if total%int64(listSize) != 0 {
		totalPages++
	}

	respondWithJSON(w, http.StatusOK, listResponse{
		Files: infos,
		Pagination: paginationResponse{
			Total:      total,
			Page:       page,
			ListSize:   listSize,
			TotalPages: totalPages,
		},
	})
}

// HandleGet handles GET /api/file/{id}
func (h *FileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	file, ok := h.lookupFile(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, fileInfo(file, true))
}

// HandleDownload handles GET /api/file/download/{id}
func (h *FileHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	file, ok := h.lookupFile(w, r)
	if !ok {
		return
	}

	if !h.store.Exists(file.Filename) {
		respondWithError(w, http.StatusNotFound, "File not found on disk")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalName))
	w.Header().Set("Content-Type", file.MimeType)
	http.ServeFile(w, r, h.store.Path(file.Filename))
}

// HandleDelete handles DELETE /api/file/delete/{id}
func (h *FileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	file, ok := h.lookupFile(w, r)
	if !ok {
		return
	}

	if err := h.store.Remove(file.Filename); err != nil {
		log.Printf("Delete error: %v", err)
	}

	if err := h.fileRepo.Delete(r.Context(), file.ID, file.UserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "File not found")
			return
		}
		log.Printf("Delete error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

// HandleUpdate handles PUT /api/file/update/{id}: replaces the stored blob
// and its metadata in one step
func (h *FileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	part, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer part.Close()

	existing, err := h.fileRepo.GetByIDAndUser(r.Context(), id, identity.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "File not found")
			return
		}
		log.Printf("Update error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	storedName, err := h.store.Save(part, header.Filename)
	if err != nil {
		log.Printf("Update error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	updated, err := h.fileRepo.Update(r.Context(), model.File{
		ID:           existing.ID,
		UserID:       existing.UserID,
		Filename:     storedName,
		OriginalName: header.Filename,
		Extension:    filepath.Ext(header.Filename),
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	})
	if err != nil {
		_ = h.store.Remove(storedName)
		log.Printf("Update error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Old blob is only dropped once the row points at the new one.
	if err := h.store.Remove(existing.Filename); err != nil {
		log.Printf("Update error: %v", err)
	}

	respondWithJSON(w, http.StatusOK, fileInfo(updated, false))
}

// lookupFile resolves {id} for the authenticated user, writing the error
// response itself when the lookup fails.
func (h *FileHandler) lookupFile(w http.ResponseWriter, r *http.Request) (model.File, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No token provided")
		return model.File{}, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file ID")
		return model.File{}, false
	}

	file, err := h.fileRepo.GetByIDAndUser(r.Context(), id, identity.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "File not found")
			return model.File{}, false
		}
		log.Printf("Get file error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return model.File{}, false
	}
	return file, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
