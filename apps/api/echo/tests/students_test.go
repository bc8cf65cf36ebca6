package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func personalInfo(first string) echo.Map {
	return echo.Map{
		"firstName":   first,
		"lastName":    "Kumar",
		"dateOfBirth": "2005-06-15",
		"gender":      "Male",
		"email":       strings.ToUpper(first) + "@Example.com",
		"phone":       "9876543210",
	}
}

func studentPayload(pin, branch, first string) echo.Map {
	return echo.Map{
		"pin":          pin,
		"branch":       branch,
		"academicYear": "2023-24",
		"personalInfo": personalInfo(first),
		"academicInfo": echo.Map{"regulation": "C23", "currentSemester": 3, "cgpa": 8.2},
	}
}

func (app *testApp) createStudent(t *testing.T, token string, body echo.Map) map[string]interface{} {
	t.Helper()
	rec := app.do(newAuthRequest(http.MethodPost, "/api/students", token, marchallObj(t, body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc map[string]interface{}
	decodeBody(t, rec, &doc)
	return doc
}

func pictureOf(doc map[string]interface{}) string {
	info, _ := doc["personalInfo"].(map[string]interface{})
	url, _ := info["profilePictureUrl"].(string)
	return url
}

func Test_studentApi_create(t *testing.T) {
	app := setup(t)
	token := app.env.AdminToken(t)

	doc := app.createStudent(t, token, studentPayload(" 23001-CS-001 ", "CSE", "Ravi"))
	assert.Equal(t, "23001-CS-001", doc["pin"])
	info := doc["personalInfo"].(map[string]interface{})
	assert.Equal(t, "ravi@example.com", info["email"])
	assert.Equal(t, "2005-06-15T00:00:00Z", info["dateOfBirth"])
	assert.Equal(t, float64(3), doc["academicInfo"].(map[string]interface{})["currentSemester"])

	app.run(t, []httpTest{
		{name: "needs a token", method: http.MethodPost, path: "/api/students", body: marchallObj(t, studentPayload("x", "CSE", "Anu")), wantCode: http.StatusUnauthorized},
		{
			name: "duplicate PIN", method: http.MethodPost, path: "/api/students", token: token,
			body: marchallObj(t, studentPayload("23001-CS-001", "CSE", "Anu")), wantCode: http.StatusBadRequest, wantData: message(t, "PIN already exists"),
		},
	})

	t.Run("validation", func(t *testing.T) {
		body := studentPayload("23001-CS-002", "CSE", "Anu")
		body["personalInfo"].(echo.Map)["email"] = "not-an-email"
		body["personalInfo"].(echo.Map)["gender"] = "lol"
		delete(body, "academicYear")

		rec := app.do(newAuthRequest(http.MethodPost, "/api/students", token, marchallObj(t, body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		var res struct {
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		}
		decodeBody(t, rec, &res)
		assert.Equal(t, "Validation failed", res.Message)
		assert.Contains(t, res.Details, "academicYear")
		assert.Contains(t, res.Details, "personalInfo.email")
		assert.Equal(t, "gender must be one of [Male, Female, Other]", res.Details["personalInfo.gender"])
	})

	t.Run("multipart with picture", func(t *testing.T) {
		fields := map[string]string{
			"pin":          "23001-CS-003",
			"branch":       "CSE",
			"academicYear": "2023-24",
			"personalInfo": string(marchallObj(t, personalInfo("Sita"))),
		}
		rec := app.do(newMultipartRequest(t, http.MethodPost, "/api/students", token, fields, pngPart("file")))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var doc map[string]interface{}
		decodeBody(t, rec, &doc)
		url := pictureOf(doc)
		assert.True(t, strings.HasPrefix(url, "https://files.test/profile/"), url)
		assert.True(t, app.files.Has(url))
	})

	t.Run("invalid picture is not stored", func(t *testing.T) {
		n := app.files.Len()
		fields := map[string]string{"pin": "23001-CS-004", "branch": "CSE", "academicYear": "2023-24"}
		txt := filePart{field: "file", filename: "notes.txt", contentType: "text/plain", content: []byte("hello")}

		rec := app.do(newMultipartRequest(t, http.MethodPost, "/api/students", token, fields, txt))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: message(t, "Invalid file type. Only images, PDFs, and documents are allowed."),
		}, rec)
		assert.Equal(t, n, app.files.Len())
	})

	t.Run("failed create removes the picture", func(t *testing.T) {
		n := app.files.Len()
		fields := map[string]string{"pin": "23001-CS-001", "branch": "CSE", "academicYear": "2023-24", "personalInfo": string(marchallObj(t, personalInfo("Anu")))}

		rec := app.do(newMultipartRequest(t, http.MethodPost, "/api/students", token, fields, pngPart("file")))
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: message(t, "PIN already exists")}, rec)
		assert.Equal(t, n, app.files.Len())
	})
}

func Test_studentApi_search(t *testing.T) {
	app := setup(t)
	token := app.env.AdminToken(t)
	ravi := app.createStudent(t, token, studentPayload("23001-CS-001", "CSE", "Ravi"))

	app.run(t, []httpTest{
		{name: "PIN required", path: "/api/students/search", wantCode: http.StatusBadRequest, wantData: message(t, "PIN is required")},
		{name: "unknown PIN", path: "/api/students/search?pin=lol", wantCode: http.StatusNotFound, wantData: message(t, "Student not found")},
		{name: "exact PIN only", path: "/api/students/search?pin=23001", wantCode: http.StatusNotFound, wantData: message(t, "Student not found")},
		{name: "other branch", path: "/api/students/search?pin=23001-CS-001&branch=ECE", wantCode: http.StatusNotFound, wantData: message(t, "Student not found")},
		{name: "found", path: "/api/students/search?pin=23001-CS-001", wantData: marchallObj(t, ravi)},
		{name: "found in branch & year", path: "/api/students/search?pin=23001-CS-001&branch=CSE&academicYear=2023-24", wantData: marchallObj(t, ravi)},
	})
}

func Test_studentApi_query(t *testing.T) {
	app := setup(t)
	token := app.env.AdminToken(t)
	app.createStudent(t, token, studentPayload("23001-EC-001", "ECE", "Anu"))
	app.createStudent(t, token, studentPayload("23001-CS-002", "CSE", "Sita"))
	ravi := app.createStudent(t, token, studentPayload("23001-CS-001", "CSE", "Ravi"))

	type listResponse struct {
		Students   []map[string]interface{} `json:"students"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"pagination"`
	}
	pins := func(res listResponse) []string {
		var pins []string
		for _, s := range res.Students {
			pins = append(pins, s["pin"].(string))
		}
		return pins
	}

	tests := []struct {
		name      string
		query     string
		wantPins  []string
		wantTotal int
		wantLimit int
	}{
		{name: "all, in PIN order", wantPins: []string{"23001-CS-001", "23001-CS-002", "23001-EC-001"}, wantTotal: 3, wantLimit: 20},
		{name: "branch", query: "?branch=CSE", wantPins: []string{"23001-CS-001", "23001-CS-002"}, wantTotal: 2, wantLimit: 20},
		{name: "paged", query: "?limit=1&page=3", wantPins: []string{"23001-EC-001"}, wantTotal: 3, wantLimit: 1},
		{name: "other year", query: "?academicYear=2024-25", wantTotal: 0, wantLimit: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(newAuthRequest(http.MethodGet, "/api/students"+tt.query, token))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var res listResponse
			decodeBody(t, rec, &res)
			assert.Equal(t, tt.wantPins, pins(res))
			assert.Equal(t, tt.wantTotal, res.Pagination.Total)
			assert.Equal(t, tt.wantLimit, res.Pagination.Limit)
		})
	}

	app.run(t, []httpTest{
		{name: "get", path: "/api/students/" + idOf(t, ravi), token: token, wantData: marchallObj(t, ravi)},
		{name: "get needs a token", path: "/api/students/" + idOf(t, ravi), wantCode: http.StatusUnauthorized},
		{name: "get invalid id", path: "/api/students/lol", token: token, wantCode: http.StatusNotFound, wantData: message(t, "Student not found")},
	})
}

func Test_studentApi_update(t *testing.T) {
	app := setup(t)
	token := app.env.AdminToken(t)
	ravi := app.createStudent(t, token, studentPayload("23001-CS-001", "CSE", "Ravi"))
	app.createStudent(t, token, studentPayload("23001-CS-002", "CSE", "Sita"))
	path := "/api/students/" + idOf(t, ravi)

	app.run(t, []httpTest{
		{
			name: "not found", method: http.MethodPut, path: "/api/students/" + primitive.NewObjectID().Hex(), token: token,
			body: []byte(`{"academicYear":"2024-25"}`), wantCode: http.StatusNotFound, wantData: message(t, "Student not found"),
		},
		{
			name: "duplicate PIN", method: http.MethodPut, path: path, token: token,
			body: []byte(`{"pin":"23001-CS-002"}`), wantCode: http.StatusBadRequest, wantData: message(t, "PIN already exists"),
		},
	})

	t.Run("json", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"attendance": echo.Map{"overallAttendance": 87.5}})
		rec := app.do(newAuthRequest(http.MethodPut, path, token, body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var doc map[string]interface{}
		decodeBody(t, rec, &doc)
		assert.Equal(t, 87.5, doc["attendance"].(map[string]interface{})["overallAttendance"])
		assert.Equal(t, ravi["academicInfo"], doc["academicInfo"])
	})

	var firstPicture string
	t.Run("picture", func(t *testing.T) {
		rec := app.do(newMultipartRequest(t, http.MethodPut, path, token, map[string]string{"academicYear": "2024-25"}, pngPart("file")))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var doc map[string]interface{}
		decodeBody(t, rec, &doc)
		assert.Equal(t, "2024-25", doc["academicYear"])
		firstPicture = pictureOf(doc)
		assert.True(t, app.files.Has(firstPicture))
		// the rest of personalInfo is kept
		assert.Equal(t, "ravi@example.com", doc["personalInfo"].(map[string]interface{})["email"])
	})

	t.Run("new picture replaces the old one", func(t *testing.T) {
		rec := app.do(newMultipartRequest(t, http.MethodPut, path, token, nil, pngPart("file")))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var doc map[string]interface{}
		decodeBody(t, rec, &doc)
		url := pictureOf(doc)
		assert.NotEqual(t, firstPicture, url)
		assert.True(t, app.files.Has(url))
		assert.False(t, app.files.Has(firstPicture))
		assert.Equal(t, 1, app.files.Len())
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodDelete, path, token))
		checkCodeAndData(t, httpTest{wantData: message(t, "Student deleted successfully")}, rec)
		assert.Equal(t, 0, app.files.Len())

		rec = app.do(newAuthRequest(http.MethodDelete, path, token))
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: message(t, "Student not found")}, rec)
	})
}
