package httpserver

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/passvault/internal/errs"
	"github.com/and161185/passvault/internal/model"
)

// maxBodySize bounds request bodies (envelopes and metadata are short).
const maxBodySize = 64 * 1024

// entryPayload is the create/update request body. Password and Master are
// transport envelopes, never plaintext.
type entryPayload struct {
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
	Master   string `json:"master"`
}

// entryResponse is an entry without its sealed password blob.
type entryResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	Color    string    `json:"color"`
	Website  string    `json:"website"`
	Username string    `json:"username"`
	Pinned   bool      `json:"pinned"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

func toEntryResponse(e *model.Entry) entryResponse {
	return entryResponse{
		ID:       e.ID.String(),
		Name:     e.Name,
		Icon:     e.Icon,
		Color:    e.Color,
		Website:  e.Website,
		Username: e.Username,
		Pinned:   e.Pinned,
		Created:  e.Created,
		Updated:  e.Updated,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the error taxonomy onto HTTP statuses without
// leaking which internal step failed.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrTransportAuth):
		writeError(w, http.StatusBadRequest, errs.ErrTransportAuth.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, errs.ErrUnauthorized.Error())
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, errs.ErrNotFound.Error())
	case errors.Is(err, errs.ErrAtRestAuth):
		writeError(w, http.StatusUnprocessableEntity, errs.ErrAtRestAuth.Error())
	case strings.HasPrefix(err.Error(), "validation:"):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return uuid.Nil, false
	}
	return id, true
}

func mustUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no auth")
		return uuid.Nil, false
	}
	return id, true
}

// --- Entries ---

func (s *Server) handleEntriesChallenge(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustUserID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"challenge": string(s.entries.Challenge())})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	list, err := s.entries.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(list))
	for i := range list {
		out = append(out, toEntryResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var p entryPayload
	if !decodeBody(w, r, &p) {
		return
	}
	e, err := s.entries.Create(r.Context(), userID, model.EntryInput{
		Name: p.Name, Icon: p.Icon, Color: p.Color, Website: p.Website, Username: p.Username,
	}, p.Master, p.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(e))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var p entryPayload
	if !decodeBody(w, r, &p) {
		return
	}
	e, err := s.entries.Update(r.Context(), userID, id, model.EntryInput{
		Name: p.Name, Icon: p.Icon, Color: p.Color, Website: p.Website, Username: p.Username,
	}, p.Master, p.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(e))
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var p struct {
		Master string `json:"master"`
	}
	if !decodeBody(w, r, &p) {
		return
	}
	envelope, err := s.entries.Decrypt(r.Context(), userID, id, p.Master)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"password": envelope})
}

func (s *Server) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	e, err := s.entries.TogglePin(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(e))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.entries.Remove(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var p struct {
		Master string `json:"master"`
	}
	if !decodeBody(w, r, &p) {
		return
	}
	rows, err := s.entries.Export(r.Context(), userID, p.Master)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="passwords.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"name", "website", "username", "password"})
	for i := range rows {
		_ = cw.Write([]string{rows[i].Name, rows[i].Website, rows[i].Username, rows[i].Password})
	}
	cw.Flush()
}

// --- Master credential ---

func (s *Server) handleMasterChallenge(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustUserID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"challenge": string(s.master.Challenge())})
}

func (s *Server) handleMasterCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var p struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.master.Create(r.Context(), userID, p.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMasterVerify(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var p struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &p) {
		return
	}
	match, err := s.master.Verify(r.Context(), userID, p.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"match": match})
}

func (s *Server) handleValidateOTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustUserID(w, r); !ok {
		return
	}
	var p struct {
		OTP   string `json:"otp"`
		OTPID string `json:"otpId"`
	}
	if !decodeBody(w, r, &p) {
		return
	}
	valid, err := s.master.ValidateOTP(r.Context(), p.OTP, p.OTPID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}
