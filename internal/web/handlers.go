package web

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/rescale/drive-explorer/internal/download"
	"github.com/rescale/drive-explorer/internal/explorer"
)

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type openRequest struct {
	FolderID string `json:"folderId"`
	Name     string `json:"name"`
}

// breadcrumbRequest.Index is a pointer so a missing index is told apart from 0.
type breadcrumbRequest struct {
	Index *int `json:"index"`
}

type downloadRequest struct {
	FileID string `json:"fileId"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Count()})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Render(r.Context()))
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if isForm(r) {
		req.FolderID, req.Name = r.PostFormValue("folderId"), r.PostFormValue("name")
	} else if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, explorer.Intent{Kind: explorer.IntentOpenFolder, FolderID: req.FolderID, Name: req.Name})
}

func (s *Server) handleBreadcrumb(w http.ResponseWriter, r *http.Request) {
	var req breadcrumbRequest
	if isForm(r) {
		if idx, err := strconv.Atoi(r.PostFormValue("index")); err == nil {
			req.Index = &idx
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}
	// Missing or mangled index: same as an out-of-range click.
	idx := -1
	if req.Index != nil {
		idx = *req.Index
	}
	s.apply(w, r, explorer.Intent{Kind: explorer.IntentBreadcrumb, Index: idx})
}

func (s *Server) handleRequestDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if isForm(r) {
		req.FileID = r.PostFormValue("fileId")
	} else if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, explorer.Intent{Kind: explorer.IntentRequestDownload, FileID: req.FileID})
}

func (s *Server) handleIntent(kind explorer.IntentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.apply(w, r, explorer.Intent{Kind: kind})
	}
}

// apply runs one intent. Form posts from the HTML page are answered with a
// redirect back to the page; API calls get the rendered view as JSON.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, in explorer.Intent) {
	sess := sessionFrom(r.Context())
	view, err := sess.Handle(r.Context(), in)
	if isForm(r) {
		if err != nil {
			s.log.Debug().Err(err).Str("intent", string(in.Kind)).Msg("Rejected intent")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, download.ErrInvalidTransition) {
			status = http.StatusConflict
		}
		writeJSON(w, status, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSave streams the prepared file once; the flow returns to Idle.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	content, name, err := sessionFrom(r.Context()).SaveDownload()
	if err != nil {
		writeJSON(w, http.StatusConflict, apiError{Error: "no download ready", Detail: err.Error()})
		return
	}
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		s.log.Debug().Err(err).Str("filename", name).Msg("Download write failed")
	}
}

func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

func wantsHTML(r *http.Request) bool {
	return r.URL.Path == "/" || strings.Contains(r.Header.Get("Accept"), "text/html")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body", Detail: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
