package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/controllers"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/routes"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/app/views"
	"github.com/aurcc/bonafide-portal/internal/middleware"
	"github.com/aurcc/bonafide-portal/internal/session"
)

const cookieName = "portal_test"

// fakeAPI records the calls the portal makes upstream.
type fakeAPI struct {
	mu       sync.Mutex
	created  []map[string]any
	expired  bool
	students []models.Student
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/hostels/", func(w http.ResponseWriter, r *http.Request) {
		if f.expired && r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, []models.Hostel{
			{ID: 1, Code: "BH1", Name: "Boys Hostel 1", HostelType: "boys", Capacity: 200},
			{ID: 2, Code: "GH1", Name: "Girls Hostel 1", HostelType: "girls", Capacity: 150, MessFeesPerYear: 42000},
		})
	})
	mux.HandleFunc("/api/hostels/create/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = append(f.created, body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, body)
	})
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]string{"detail": "Token is invalid or expired"})
	})
	mux.HandleFunc("/api/students/list/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"results": f.students})
	})
	mux.HandleFunc("/api/students/departments/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Department{{ID: 3, Code: "CSE", Name: "Computer Science"}})
	})
	return mux
}

func (f *fakeAPI) createdHostels() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.created...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type portal struct {
	router   *gin.Engine
	sessions *session.Provider
	api      *fakeAPI
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &fakeAPI{}
	upstream := httptest.NewServer(fake.handler())
	t.Cleanup(upstream.Close)

	api := apiclient.New(apiclient.Options{BaseURL: upstream.URL + "/api", Timeout: 5 * time.Second})
	sessions := session.NewProvider(session.NewMemoryStore(), api, time.Hour)
	svc := services.New(api, sessions, 5<<20)
	pages := middleware.NewSessionMiddleware(sessions, middleware.CookieConfig{Name: cookieName, TTL: time.Hour}, zerolog.Nop())
	log := zerolog.Nop()

	ctl := routes.Controllers{
		Auth:           controllers.NewAuthController(svc.Auth, pages, log),
		Public:         controllers.NewPublicController(svc.Certificates, pages, log),
		Student:        controllers.NewStudentController(svc, pages, 5<<20, log),
		Review:         controllers.NewReviewController(svc, pages, log),
		Dean:           controllers.NewDeanController(svc.Records, pages, log),
		StudentRecords: controllers.NewStudentRecordsController(svc.Records, pages, 5<<20, log),
		Departments:    controllers.NewDepartmentController(svc.Records, pages, log),
		Hostels:        controllers.NewHostelController(svc.Records, pages, log),
		Wardens:        controllers.NewWardenController(svc.Records, pages, log),
	}

	router := gin.New()
	router.HTMLRender = views.MustNew()
	router.Use(pages.LoadSession())
	routes.SetupRouter(router, ctl, pages, 6<<20)

	return &portal{router: router, sessions: sessions, api: fake}
}

func (p *portal) login(t *testing.T, role models.RoleName) *http.Cookie {
	t.Helper()
	s, err := p.sessions.Start(context.Background(),
		models.User{ID: 1, Username: string(role) + "1", FirstName: "Test", Role: role},
		models.TokenPair{Access: "access", Refresh: "refresh"})
	require.NoError(t, err)
	return &http.Cookie{Name: cookieName, Value: s.ID}
}

func (p *portal) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestRoleSubtrees(t *testing.T) {
	p := newPortal(t)

	w := p.do(httptest.NewRequest(http.MethodGet, "/dean/hostels", nil), nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = p.do(httptest.NewRequest(http.MethodGet, "/dean/hostels", nil), p.login(t, models.RoleNameStudent))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You do not have permission to view this page.")
}

func TestHostels_EditPrefillsForm(t *testing.T) {
	p := newPortal(t)

	w := p.do(httptest.NewRequest(http.MethodGet, "/dean/hostels?edit=2", nil), p.login(t, models.RoleNameDean))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `action="/dean/hostels/2"`)
	assert.Contains(t, body, `value="GH1"`)
	assert.Contains(t, body, "Edit hostel")

	w = p.do(httptest.NewRequest(http.MethodGet, "/dean/hostels?edit=99", nil), p.login(t, models.RoleNameDean))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Add hostel", "unknown ids fall back to the create form")
}

func TestSaveHostel(t *testing.T) {
	p := newPortal(t)
	dean := p.login(t, models.RoleNameDean)

	w := p.do(postForm("/dean/hostels", url.Values{
		"code":        {"BH2"},
		"name":        {"Boys Hostel 2"},
		"hostel_type": {"boys"},
		"capacity":    {"120"},
	}), dean)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dean/hostels", w.Header().Get("Location"))

	created := p.api.createdHostels()
	require.Len(t, created, 1)
	assert.Equal(t, "BH2", created[0]["code"])

	w = p.do(httptest.NewRequest(http.MethodGet, "/dean/hostels", nil), dean)
	assert.Contains(t, w.Body.String(), "Hostel created successfully")
}

func TestSaveHostel_InvalidFormRerenders(t *testing.T) {
	p := newPortal(t)

	w := p.do(postForm("/dean/hostels", url.Values{
		"code":        {"BH2"},
		"hostel_type": {"boys"},
		"capacity":    {"0"},
	}), p.login(t, models.RoleNameDean))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `value="BH2"`)
	assert.Empty(t, p.api.createdHostels())
}

func TestExpiredUpstreamSessionLogsOut(t *testing.T) {
	p := newPortal(t)
	p.api.expired = true
	dean := p.login(t, models.RoleNameDean)

	w := p.do(httptest.NewRequest(http.MethodGet, "/dean/hostels", nil), dean)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?expired=1", w.Header().Get("Location"))

	_, err := p.sessions.Load(context.Background(), dean.Value)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStudents_DirectoryCounts(t *testing.T) {
	p := newPortal(t)
	p.api.students = []models.Student{
		{ID: 1, RegisterNumber: "2023001", Name: "Anu", CurrentYear: 1},
		{ID: 2, RegisterNumber: "2022001", Name: "Bala", CurrentYear: 2},
		{ID: 3, RegisterNumber: "2022002", Name: "Chitra", CurrentYear: 2},
	}

	w := p.do(httptest.NewRequest(http.MethodGet, "/dean/students", nil), p.login(t, models.RoleNameDean))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "2nd Year")
	assert.Contains(t, body, "Chitra")
	assert.Contains(t, body, "CSE - Computer Science")
}

func TestUploadTemplate(t *testing.T) {
	p := newPortal(t)

	w := p.do(httptest.NewRequest(http.MethodGet, "/dean/students/upload/template.csv", nil), p.login(t, models.RoleNameDean))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "student_upload_template.csv")

	assert.True(t, strings.HasPrefix(w.Body.String(), strings.Join(services.StudentTemplateColumns, ",")+"\n"))
}

func TestNotFound(t *testing.T) {
	p := newPortal(t)

	w := p.do(httptest.NewRequest(http.MethodGet, "/nowhere", nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "The page you are looking for does not exist.")
}

func TestYearCounts(t *testing.T) {
	view := controllers.StudentsView{ByYear: [services.StudyYears]int{4, 3, 2, 1}}
	counts := view.YearCounts()
	require.Len(t, counts, services.StudyYears)
	assert.Equal(t, controllers.YearCount{Label: "1st Year", Count: 4}, counts[0])
	assert.Equal(t, controllers.YearCount{Label: "4th Year", Count: 1}, counts[3])
}

func TestCatalogue_Paths(t *testing.T) {
	view := controllers.FeesView{Base: "/dean/fees", HostelID: 2}
	assert.Equal(t, "/dean/fees", view.Action())
	assert.Equal(t, "/dean/fees?hostel=2", view.Back())
	assert.Equal(t, "/dean/fees?edit=5&hostel=2", view.EditPath(5))
	assert.Equal(t, "/dean/fees/5/delete?hostel=2", view.DeletePath(5))

	view.EditID = 5
	view.HostelID = 0
	assert.Equal(t, "/dean/fees/5", view.Action())
	assert.Equal(t, "/dean/fees", view.Back())
}
