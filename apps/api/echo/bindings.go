package echoapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core"
)

// Ordering is bound from the "sort" query param, eg. "-created_date,title".
type Ordering struct {
	Sort string
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Sort = core.CleanString(ctx.QueryParam("sort"))
}

// Paging is bound from the "page" and "limit" query params; invalid values are left zero.
type Paging struct {
	Page  int
	Limit int
}

func (p *Paging) Bind(ctx echo.Context) {
	p.Page = core.ParseInt(ctx.QueryParam("page"), 0)
	p.Limit = core.ParseInt(ctx.QueryParam("limit"), 0)
}

// intValue reads a JSON number or numeric string; def is returned for anything else.
func intValue(v interface{}, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		return core.ParseInt(n, def)
	}
	return def
}

// decodeJSON decodes the JSON body into v. An empty body leaves v untouched.
func decodeJSON(ctx echo.Context, v interface{}) error {
	err := json.NewDecoder(ctx.Request().Body).Decode(v)
	if err == nil || err == io.EOF {
		return nil
	}
	return newAPIError(http.StatusBadRequest, "Invalid JSON body", err.Error())
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// formPayload turns the fields of a JSON, urlencoded or multipart request into a Document.
// Form values are strings: ints and bools list the fields to convert, jsonFields the ones holding JSON.
type formPayload struct {
	ints       []string
	bools      []string
	lists      []string // comma separated
	jsonFields []string
}

func (fp formPayload) bind(ctx echo.Context) (core.Document, error) {
	doc := make(core.Document)
	ctype := ctx.Request().Header.Get(echo.HeaderContentType)
	if !(strings.HasPrefix(ctype, echo.MIMEMultipartForm) || strings.HasPrefix(ctype, echo.MIMEApplicationForm)) {
		if err := decodeJSON(ctx, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	params, err := ctx.FormParams()
	if err != nil {
		return nil, errors.Wrap(err, "parsing form")
	}
	for key, vals := range params {
		if len(vals) > 0 {
			doc[key] = vals[0]
		}
	}

	for _, key := range fp.ints {
		if s, ok := doc[key].(string); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				doc[key] = n
			} else {
				delete(doc, key)
			}
		}
	}
	for _, key := range fp.bools {
		if s, ok := doc[key].(string); ok {
			doc[key] = core.ParseBool(s)
		}
	}
	for _, key := range fp.lists {
		if s, ok := doc[key].(string); ok {
			doc[key] = core.SplitList(s)
		}
	}
	for _, key := range fp.jsonFields {
		s, ok := doc[key].(string)
		if !ok {
			continue
		}
		var v core.Document
		if s == "" || json.Unmarshal([]byte(s), &v) != nil {
			v = core.Document{}
		}
		doc[key] = v
	}
	return doc, nil
}
