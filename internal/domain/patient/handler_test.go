package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	fx := newFixture()
	return NewHandler(fx.svc), fx, echo.New()
}

func asPrincipal(req *http.Request, p auth.Principal) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

func TestHandler_Create(t *testing.T) {
	h, fx, e := newTestHandler()
	body := `{"name":"Hauwa Sani","age":22,"registration_date":"2024-05-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = asPrincipal(req, fx.staff)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var out Record
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.UniqueCode == "" {
		t.Error("expected a unique code in the response")
	}
	if out.CreatedBy == nil || *out.CreatedBy != "nurse-a" {
		t.Errorf("expected created_by nurse-a, got %v", out.CreatedBy)
	}
}

func TestHandler_Create_Invalid(t *testing.T) {
	h, fx, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = asPrincipal(req, fx.staff)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Create(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", httpErr.Code)
	}
}

func TestHandler_Get_OtherFacility(t *testing.T) {
	h, fx, e := newTestHandler()
	r := register(t, fx, fx.facA.ID)

	req := asPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), fx.other)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())

	err := h.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	h, fx, e := newTestHandler()
	req := asPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), fx.admin)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_List_Paginated(t *testing.T) {
	h, fx, e := newTestHandler()
	for i := 0; i < 3; i++ {
		register(t, fx, fx.facA.ID)
	}

	req := asPrincipal(httptest.NewRequest(http.MethodGet, "/?limit=2", nil), fx.staff)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []Record `json:"data"`
		Total   int      `json:"total"`
		HasMore bool     `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 || len(resp.Data) != 2 || !resp.HasMore {
		t.Errorf("unexpected page: total=%d len=%d more=%v", resp.Total, len(resp.Data), resp.HasMore)
	}
}

func TestHandler_List_BadFilter(t *testing.T) {
	h, fx, e := newTestHandler()
	req := asPrincipal(httptest.NewRequest(http.MethodGet, "/?from=01-01-2024", nil), fx.admin)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.List(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestFilterFromQuery(t *testing.T) {
	e := echo.New()
	fac := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?facility_id="+fac.String()+"&from=2024-01-01&to=2024-01-31&search=ami", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	f, err := FilterFromQuery(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.FacilityID == nil || *f.FacilityID != fac {
		t.Errorf("expected facility filter")
	}
	if f.RegisteredTo == nil || f.RegisteredTo.Format(dateLayout) != "2024-02-01" {
		t.Errorf("expected exclusive end 2024-02-01, got %v", f.RegisteredTo)
	}
	if f.Search != "ami" {
		t.Errorf("expected search, got %q", f.Search)
	}
}

func TestHandler_Delete(t *testing.T) {
	h, fx, e := newTestHandler()
	r := register(t, fx, fx.facA.ID)

	req := asPrincipal(httptest.NewRequest(http.MethodDelete, "/", nil), fx.admin)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())

	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
