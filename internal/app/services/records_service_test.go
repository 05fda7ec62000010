package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

type recordedCall struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// recordingUpstream answers API calls from a route table and records every call.
type recordingUpstream struct {
	mu     sync.Mutex
	calls  []recordedCall
	routes map[string]func(w http.ResponseWriter)
}

func newRecordsService(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*RecordsService, *recordingUpstream) {
	t.Helper()
	up := &recordingUpstream{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{Method: r.Method, Path: r.URL.Path}
		_ = json.NewDecoder(r.Body).Decode(&call.Body)
		up.mu.Lock()
		up.calls = append(up.calls, call)
		up.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if handler, ok := up.routes[r.Method+" "+r.URL.Path]; ok {
			handler(w)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return NewRecordsService(apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api"}), nopLogger), up
}

func respond(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func wardenForm() dto.WardenRequest {
	return dto.WardenRequest{
		Username:    "warden.boys",
		Password:    "Initial#123",
		Email:       "warden@hostel.edu",
		FirstName:   "Ravi",
		LastName:    "Kumar",
		PhoneNumber: "9876543210",
		HostelID:    2,
	}
}

func TestRecords_CreateWardenTwoSteps(t *testing.T) {
	svc, up := newRecordsService(t, map[string]func(http.ResponseWriter){
		"POST /api/auth/wardens/create/":   respond(http.StatusCreated, `{"id":17,"username":"warden.boys"}`),
		"POST /api/hostels/warden/create/": respond(http.StatusCreated, `{"id":5}`),
	})

	require.NoError(t, svc.CreateWarden(context.Background(), staticCreds{}, wardenForm()))
	require.Len(t, up.calls, 2)

	account := up.calls[0].Body
	assert.Equal(t, "warden.boys", account["username"])
	assert.Equal(t, "warden", account["role"])
	assert.Equal(t, "Initial#123", account["password"])

	profile := up.calls[1].Body
	assert.Equal(t, float64(17), profile["user_id"])
	assert.Equal(t, float64(2), profile["hostel"])
	assert.Equal(t, "Ravi Kumar", profile["name"])
}

func TestRecords_CreateWardenRemovesAccountWhenProfileFails(t *testing.T) {
	svc, up := newRecordsService(t, map[string]func(http.ResponseWriter){
		"POST /api/auth/wardens/create/":   respond(http.StatusCreated, `{"id":17,"username":"warden.boys"}`),
		"POST /api/hostels/warden/create/": respond(http.StatusBadRequest, `{"hostel":["This hostel already has a warden."]}`),
		"DELETE /api/auth/wardens/17/":     respond(http.StatusNoContent, ``),
	})

	err := svc.CreateWarden(context.Background(), staticCreds{}, wardenForm())
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	require.Len(t, up.calls, 3)
	assert.Equal(t, "DELETE", up.calls[2].Method)
}

func TestRecords_CreateWardenNeedsCredentials(t *testing.T) {
	svc, up := newRecordsService(t, nil)
	form := wardenForm()
	form.Password = ""

	err := svc.CreateWarden(context.Background(), staticCreds{}, form)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Contains(t, apperrors.FieldErrors(err), "password")
	assert.Empty(t, up.calls)
}

func TestRecords_ResetWardenPasswordSendsOnlyPassword(t *testing.T) {
	svc, up := newRecordsService(t, nil)

	require.NoError(t, svc.ResetWardenPassword(context.Background(), staticCreds{}, 17, dto.ResetPasswordRequest{Password: "Fresh#2026"}))
	require.Len(t, up.calls, 1)
	assert.Equal(t, "PATCH", up.calls[0].Method)
	assert.Equal(t, "/api/auth/wardens/17/", up.calls[0].Path)
	assert.Equal(t, map[string]interface{}{"password": "Fresh#2026"}, up.calls[0].Body)

	err := svc.ResetWardenPassword(context.Background(), staticCreds{}, 17, dto.ResetPasswordRequest{Password: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Len(t, up.calls, 1)
}

func TestRecords_StudentDirectory(t *testing.T) {
	svc, _ := newRecordsService(t, map[string]func(http.ResponseWriter){
		"GET /api/students/list/": respond(http.StatusOK, `{"results":[
			{"id":1,"register_number":"21CS001","name":"Anitha","current_year":1,"department":1,"hostel":2},
			{"id":2,"register_number":"21CS002","name":"Bala","current_year":2,"department":1,"hostel":2},
			{"id":3,"register_number":"21EE003","name":"Chitra","current_year":2,"department":2,"hostel":1},
			{"id":4,"register_number":"21EE004","name":"Dinesh","current_year":4,"department":2,"hostel":null}
		]}`),
	})

	dir, err := svc.Students(context.Background(), staticCreds{}, dto.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, dir.Total)
	assert.Equal(t, [StudyYears]int{1, 2, 0, 1}, dir.ByYear)
	assert.Len(t, dir.Students, 4)

	dir, err = svc.Students(context.Background(), staticCreds{}, dto.StudentFilter{Year: 2, DepartmentID: 1})
	require.NoError(t, err)
	require.Len(t, dir.Students, 1)
	assert.Equal(t, "Bala", dir.Students[0].Name)
	assert.Equal(t, [StudyYears]int{1, 2, 0, 1}, dir.ByYear, "counts ignore the filter")

	dir, err = svc.Students(context.Background(), staticCreds{}, dto.StudentFilter{Search: "21ee", HostelID: 1})
	require.NoError(t, err)
	require.Len(t, dir.Students, 1)
	assert.Equal(t, "Chitra", dir.Students[0].Name)
}

func TestRecords_LocalValidation(t *testing.T) {
	svc, up := newRecordsService(t, nil)
	ctx := context.Background()

	_, err := svc.UpdateAcademicYear(ctx, staticCreds{}, dto.AcademicYearRequest{CurrentYear: 1999})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UpdateDeanProfile(ctx, staticCreds{}, dto.DeanProfileRequest{Name: "Dr. Meena"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Contains(t, apperrors.FieldErrors(err), "phone_number")

	_, err = svc.BulkUpload(ctx, staticCreds{}, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UpdateSettings(ctx, staticCreds{}, dto.SettingsRequest{CooldownPeriod: "2_weeks"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	err = svc.SaveBankAccount(ctx, staticCreds{}, 0, dto.BankAccountRequest{
		HostelID: 1, AccountType: "establishment", BankName: "SBI", BranchName: "Campus",
		AccountNumber: "12AB", IFSCCode: "SBIN0001234", AccountName: "Hostel Establishment",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	assert.Empty(t, up.calls, "nothing reaches the API")
}

func TestRecords_SaveDepartmentCreatesOrUpdates(t *testing.T) {
	svc, up := newRecordsService(t, nil)
	req := dto.DepartmentRequest{Code: " cse ", Name: "Computer Science", CourseDurationYears: 4}

	require.NoError(t, svc.SaveDepartment(context.Background(), staticCreds{}, 0, req))
	require.NoError(t, svc.SaveDepartment(context.Background(), staticCreds{}, 3, req))

	require.Len(t, up.calls, 2)
	assert.Equal(t, "POST", up.calls[0].Method)
	assert.Equal(t, "CSE", up.calls[0].Body["code"])
	assert.Equal(t, "PUT", up.calls[1].Method)
	assert.Equal(t, "/api/students/departments/3/", up.calls[1].Path)
}
