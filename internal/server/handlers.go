package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rxxuzi/fxgate/internal/auth"
	"github.com/rxxuzi/fxgate/internal/drive"
)

// maxUploadMemory caps the in-memory part of multipart parsing; larger
// file parts spill to temp files.
const maxUploadMemory = 32 << 20

// --- session ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	if !s.auth.VerifyCredentials(req.Email, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.auth.CreateToken(req.Email)
	if err != nil {
		s.log.ErrorWith("token creation failed", err, nil)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	http.SetCookie(w, s.auth.SessionCookie(token, s.SecureCookies))
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, auth.ClearCookie())
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- object manager ---

// handleListObjects serves the folder view. A store failure degrades to an
// empty listing: the file manager always renders, and the diagnostic goes
// to the log.
func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	listing, err := s.store.ListFolder(r.Context(), prefix)
	if err != nil {
		s.log.ErrorWith("folder listing failed", err, map[string]interface{}{"prefix": prefix})
		listing = drive.EmptyListing()
	}
	respondJSON(w, http.StatusOK, listing)
}

type createFolderRequest struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}

// handleCreateOrUpload disambiguates POST by content type: a JSON body is
// a folder-creation action, a multipart form is a file upload.
func (s *Server) handleCreateOrUpload(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		s.createFolder(w, r)
		return
	}
	s.uploadFile(w, r)
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid action")
		return
	}
	if req.Action != "createFolder" || req.Path == "" {
		respondError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	if err := s.store.CreateFolder(r.Context(), req.Path); err != nil {
		s.log.ErrorWith("create folder failed", err, map[string]interface{}{"path": req.Path})
		respondError(w, http.StatusInternalServerError, "Failed to create folder")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	key := header.Filename
	if path := r.FormValue("path"); path != "" {
		key = path + "/" + header.Filename
	}

	contentType := header.Header.Get("Content-Type")
	if err := s.store.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		s.log.ErrorWith("upload failed", err, map[string]interface{}{"key": key})
		respondError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "key": key})
}

type deleteRequest struct {
	Key    string `json:"key"`
	Folder string `json:"folder"`
}

// handleDeleteObjects deletes a single object or a whole prefix, picked by
// which field the body carries. A folder delete is not atomic; it only
// counts as a hard failure when nothing was deleted at all.
func (s *Server) handleDeleteObjects(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "No key or folder provided")
		return
	}

	switch {
	case req.Folder != "":
		tally, err := s.store.DeleteFolder(r.Context(), req.Folder)
		if err != nil {
			s.log.ErrorWith("folder delete failed", err, map[string]interface{}{"folder": req.Folder})
		}
		if tally.Deleted == 0 && tally.Errors > 0 {
			respondError(w, http.StatusInternalServerError, "Folder delete failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "deleted": tally.Deleted})

	case req.Key != "":
		if err := s.store.DeleteObject(r.Context(), req.Key); err != nil {
			s.log.ErrorWith("delete failed", err, map[string]interface{}{"key": req.Key})
			respondError(w, http.StatusInternalServerError, "Delete failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		respondError(w, http.StatusBadRequest, "No key or folder provided")
	}
}

type patchRequest struct {
	Action     string `json:"action"`
	Key        string `json:"key"`
	NewKey     string `json:"newKey"`
	DestFolder string `json:"destFolder"`
}

func (s *Server) handleRenameMove(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	switch req.Action {
	case "rename":
		if req.Key == "" || req.NewKey == "" {
			respondError(w, http.StatusBadRequest, "Invalid action")
			return
		}
		if err := s.store.Rename(r.Context(), req.Key, req.NewKey); err != nil {
			s.log.ErrorWith("rename failed", err, map[string]interface{}{
				"key": req.Key, "newKey": req.NewKey,
			})
			respondError(w, http.StatusInternalServerError, "Rename failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "newKey": req.NewKey})

	case "move":
		if req.Key == "" {
			respondError(w, http.StatusBadRequest, "Invalid action")
			return
		}
		newKey, err := s.store.Move(r.Context(), req.Key, req.DestFolder)
		if err != nil {
			s.log.ErrorWith("move failed", err, map[string]interface{}{
				"key": req.Key, "destFolder": req.DestFolder,
			})
			respondError(w, http.StatusInternalServerError, "Move failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "newKey": newKey})

	default:
		respondError(w, http.StatusBadRequest, "Invalid action")
	}
}

// --- public surface ---

// handleListFiles serves the flat archive view. Like the folder view it
// degrades to empty on store failure.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	files, err := s.store.ListFlat(r.Context(), prefix)
	if err != nil {
		s.log.ErrorWith("flat listing failed", err, map[string]interface{}{"prefix": prefix})
		files = []drive.File{}
	}
	respondJSON(w, http.StatusOK, files)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = "develop"
	}
	respondJSON(w, http.StatusOK, s.library.All(category))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	slug := chi.URLParam(r, "slug")

	p := s.library.Get(category, slug)
	if p == nil {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}
