package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"

	. "github.com/crreddy/polysis/apps/api/echo"
	"github.com/crreddy/polysis/apps/shared"
	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/auth"
	"github.com/crreddy/polysis/services/filestore"
	"github.com/crreddy/polysis/testutil"
)

// testApp is a server wired on a fresh in-memory store.
type testApp struct {
	Server
	env   *testutil.Env
	files *filestore.MemoryStore
}

// setupOption customises the server dependencies before the server is built.
type setupOption func(env *testutil.Env, deps *ServerDeps)

func withLimiter(limiter *RateLimiter) setupOption {
	return func(_ *testutil.Env, deps *ServerDeps) { deps.OTPLimiter = limiter }
}

// withMailer replaces the mail service of the auth endpoints.
func withMailer(mailer core.EmailService) setupOption {
	return func(env *testutil.Env, deps *ServerDeps) {
		validate, _ := shared.NewValidator()
		deps.AuthSvc = auth.NewService(env.Store, env.Services.Auth.Tokens(), mailer, validate, env.Conf)
	}
}

func setup(t *testing.T, opts ...setupOption) *testApp {
	env := testutil.NewEnv(t)
	files := filestore.NewMemoryStore()

	deps := ServerDeps{
		Conf:            env.Conf,
		Logger:          env.Logger,
		Translator:      env.Translator,
		DisableReqLogs:  true,
		AuthSvc:         env.Services.Auth,
		StudentSvc:      env.Services.Student,
		BranchSvc:       env.Services.Branch,
		MaterialSvc:     env.Services.Material,
		PaperSvc:        env.Services.Paper,
		AnnouncementSvc: env.Services.Announcement,
		BannerSvc:       env.Services.Banner,
		CarouselSvc:     env.Services.Carousel,
		Files:           files,
	}
	for _, opt := range opts {
		opt(env, &deps)
	}
	return &testApp{Server: NewServer(deps), env: env, files: files}
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := app.do(newAuthRequest(method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// filePart is a file attached to a multipart request.
type filePart struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func pdfPart(field string) filePart {
	return filePart{field: field, filename: "notes.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4 test")}
}

func pngPart(field string) filePart {
	return filePart{field: field, filename: "photo.png", contentType: "image/png", content: []byte("\x89PNG test")}
}

func newMultipartRequest(t *testing.T, method, path, token string, fields map[string]string, files ...filePart) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		h.Set(echo.HeaderContentType, f.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart(%s): %v", f.field, err)
		}
		_, _ = part.Write(f.content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Close(): %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

// message is the body of most error & confirmation responses.
func message(t *testing.T, msg string) []byte {
	return marchallObj(t, echo.Map{"message": msg})
}

// entityFailure is the error body of the /api/entities routes.
func entityFailure(t *testing.T, msg string) []byte {
	return marchallObj(t, echo.Map{"success": false, "message": msg})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decodeBody(): %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// idOf returns the hex id of a document decoded from a response.
func idOf(t *testing.T, doc map[string]interface{}) string {
	t.Helper()
	id, ok := doc["_id"].(string)
	if !ok || id == "" {
		t.Fatalf("idOf(): no _id in %v", doc)
	}
	return id
}
