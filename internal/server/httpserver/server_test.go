package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/passvault/internal/challenge"
	"github.com/and161185/passvault/internal/errs"
	"github.com/and161185/passvault/internal/model"
	"github.com/and161185/passvault/internal/service"
)

type fakeEntrySvc struct {
	chal       challenge.Challenge
	list       []model.Entry
	listErr    error
	entry      *model.Entry
	entryErr   error
	decryptOut string
	decryptErr error
	exportRows []model.ExportRow
	exportErr  error
	removeErr  error
}

var _ service.EntryService = (*fakeEntrySvc)(nil)

func (f *fakeEntrySvc) Challenge() challenge.Challenge { return f.chal }
func (f *fakeEntrySvc) List(context.Context, uuid.UUID) ([]model.Entry, error) {
	return f.list, f.listErr
}
func (f *fakeEntrySvc) Create(context.Context, uuid.UUID, model.EntryInput, string, string) (*model.Entry, error) {
	return f.entry, f.entryErr
}
func (f *fakeEntrySvc) Update(context.Context, uuid.UUID, uuid.UUID, model.EntryInput, string, string) (*model.Entry, error) {
	return f.entry, f.entryErr
}
func (f *fakeEntrySvc) Decrypt(context.Context, uuid.UUID, uuid.UUID, string) (string, error) {
	return f.decryptOut, f.decryptErr
}
func (f *fakeEntrySvc) Remove(context.Context, uuid.UUID, uuid.UUID) error { return f.removeErr }
func (f *fakeEntrySvc) TogglePin(context.Context, uuid.UUID, uuid.UUID) (*model.Entry, error) {
	return f.entry, f.entryErr
}
func (f *fakeEntrySvc) Export(context.Context, uuid.UUID, string) ([]model.ExportRow, error) {
	return f.exportRows, f.exportErr
}

type fakeMasterSvc struct {
	chal      challenge.Challenge
	createErr error
	match     bool
	verifyErr error
	valid     bool
	otpErr    error
}

var _ service.MasterService = (*fakeMasterSvc)(nil)

func (f *fakeMasterSvc) Challenge() challenge.Challenge { return f.chal }
func (f *fakeMasterSvc) Create(context.Context, uuid.UUID, string) error {
	return f.createErr
}
func (f *fakeMasterSvc) Verify(context.Context, uuid.UUID, string) (bool, error) {
	return f.match, f.verifyErr
}
func (f *fakeMasterSvc) ValidateOTP(context.Context, string, string) (bool, error) {
	return f.valid, f.otpErr
}

var testKey = []byte("test-sign-key")

func newTestServer(entries *fakeEntrySvc, master *fakeMasterSvc) http.Handler {
	return New(entries, master, testKey, zap.NewNop()).Router()
}

func bearer(t *testing.T, sub uuid.UUID) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sub.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, h http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingToken(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{}, &fakeMasterSvc{})
	w := do(t, h, http.MethodGet, "/api/entries/", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_BadToken(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{}, &fakeMasterSvc{})
	w := do(t, h, http.MethodGet, "/api/entries/", "Bearer garbage", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestList_OmitsPassword(t *testing.T) {
	t.Parallel()

	id := uuid.Must(uuid.NewV4())
	h := newTestServer(&fakeEntrySvc{list: []model.Entry{{
		ID: id, Name: "mail", Password: "c2VhbGVk", Pinned: true,
	}}}, &fakeMasterSvc{})

	w := do(t, h, http.MethodGet, "/api/entries/", bearer(t, uuid.Must(uuid.NewV4())), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "c2VhbGVk")

	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "mail", out[0]["name"])
	_, hasPassword := out[0]["password"]
	require.False(t, hasPassword)
}

func TestCreate_Created(t *testing.T) {
	t.Parallel()

	e := &model.Entry{ID: uuid.Must(uuid.NewV4()), Name: "mail"}
	h := newTestServer(&fakeEntrySvc{entry: e}, &fakeMasterSvc{})

	w := do(t, h, http.MethodPost, "/api/entries/", bearer(t, uuid.Must(uuid.NewV4())),
		`{"name":"mail","master":"env1","password":"env2"}`)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCreate_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code int
	}{
		{errs.ErrTransportAuth, http.StatusBadRequest},
		{errs.ErrUnauthorized, http.StatusUnauthorized},
		{errs.ErrNotFound, http.StatusNotFound},
		{errs.ErrAtRestAuth, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		h := newTestServer(&fakeEntrySvc{entryErr: tc.err}, &fakeMasterSvc{})
		w := do(t, h, http.MethodPost, "/api/entries/", bearer(t, uuid.Must(uuid.NewV4())),
			`{"name":"mail","master":"env1","password":"env2"}`)
		require.Equal(t, tc.code, w.Code, "err=%v", tc.err)
	}
}

func TestDecrypt_OK(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{decryptOut: "response-envelope"}, &fakeMasterSvc{})
	id := uuid.Must(uuid.NewV4())

	w := do(t, h, http.MethodPost, "/api/entries/"+id.String()+"/decrypt",
		bearer(t, uuid.Must(uuid.NewV4())), `{"master":"env"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "response-envelope", out["password"])
}

func TestDecrypt_BadID(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{}, &fakeMasterSvc{})
	w := do(t, h, http.MethodPost, "/api/entries/not-a-uuid/decrypt",
		bearer(t, uuid.Must(uuid.NewV4())), `{"master":"env"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemove_NoContent(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{}, &fakeMasterSvc{})
	id := uuid.Must(uuid.NewV4())
	w := do(t, h, http.MethodDelete, "/api/entries/"+id.String(),
		bearer(t, uuid.Must(uuid.NewV4())), "")
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestExport_CSV(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{exportRows: []model.ExportRow{
		{Name: "mail", Website: "example.com", Username: "me", Password: "s3cr3t!"},
	}}, &fakeMasterSvc{})

	w := do(t, h, http.MethodPost, "/api/entries/export",
		bearer(t, uuid.Must(uuid.NewV4())), `{"master":"env"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "name,website,username,password")
	require.Contains(t, w.Body.String(), "mail,example.com,me,s3cr3t!")
}

func TestEntriesChallenge(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{chal: "abc-123"}, &fakeMasterSvc{})
	w := do(t, h, http.MethodGet, "/api/entries/challenge",
		bearer(t, uuid.Must(uuid.NewV4())), "")
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "abc-123", out["challenge"])
}

func TestMasterVerify(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{}, &fakeMasterSvc{match: true})
	w := do(t, h, http.MethodPost, "/api/master/verify",
		bearer(t, uuid.Must(uuid.NewV4())), `{"password":"env"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(t, out["match"])
}

func TestMasterCreate_NoContent(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{}, &fakeMasterSvc{})
	w := do(t, h, http.MethodPost, "/api/master/",
		bearer(t, uuid.Must(uuid.NewV4())), `{"password":"env"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestValidateOTP(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{}, &fakeMasterSvc{valid: true})
	w := do(t, h, http.MethodPost, "/api/master/otp",
		bearer(t, uuid.Must(uuid.NewV4())), `{"otp":"123456","otpId":"otp-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(t, out["valid"])
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeEntrySvc{}, &fakeMasterSvc{})
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/livez", "", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/readyz", "", "").Code)
}
