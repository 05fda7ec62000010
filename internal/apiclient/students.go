package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
)

// StudentProfile returns the current student's own record.
func (c *Client) StudentProfile(ctx context.Context, creds Credentials) (*models.Student, error) {
	var out models.Student
	if err := c.doJSON(ctx, creds, newRequest(http.MethodGet, "/students/profile/"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStudents lists all student records.
func (c *Client) ListStudents(ctx context.Context, creds Credentials) ([]models.Student, error) {
	return doList[models.Student](ctx, c, creds, newRequest(http.MethodGet, "/students/list/"))
}

// GetStudent returns one student record.
func (c *Client) GetStudent(ctx context.Context, creds Credentials, id int64) (*models.Student, error) {
	var out models.Student
	if err := c.doJSON(ctx, creds, newRequest(http.MethodGet, fmt.Sprintf("/students/%d/", id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStudent creates a student record and login.
func (c *Client) CreateStudent(ctx context.Context, creds Credentials, in dto.StudentRequest) (*models.Student, error) {
	r, err := newRequest(http.MethodPost, "/students/create/").withJSON(in)
	if err != nil {
		return nil, err
	}
	var out models.Student
	if err := c.doJSON(ctx, creds, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStudent replaces a student record.
func (c *Client) UpdateStudent(ctx context.Context, creds Credentials, id int64, in dto.StudentRequest) error {
	r, err := newRequest(http.MethodPut, fmt.Sprintf("/students/%d/", id)).withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// ResetStudentPassword sets a new login password for a student.
func (c *Client) ResetStudentPassword(ctx context.Context, creds Credentials, id int64, password string) error {
	r, err := newRequest(http.MethodPut, fmt.Sprintf("/students/%d/", id)).withJSON(dto.ResetPasswordRequest{Password: password})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// DeleteStudent removes a student record.
func (c *Client) DeleteStudent(ctx context.Context, creds Credentials, id int64) error {
	return c.doJSON(ctx, creds, newRequest(http.MethodDelete, fmt.Sprintf("/students/%d/", id)), nil)
}

// BulkUploadStudents imports a spreadsheet of students.
func (c *Client) BulkUploadStudents(ctx context.Context, creds Credentials, file models.Attachment) (*models.BulkUploadResult, error) {
	r, err := newRequest(http.MethodPost, "/students/bulk-upload/").withMultipart(nil, formFile{
		field:       "file",
		filename:    file.Filename,
		contentType: file.ContentType,
		content:     file.Content,
	})
	if err != nil {
		return nil, err
	}
	var out models.BulkUploadResult
	if err := c.doJSON(ctx, creds, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDepartments lists departments.
func (c *Client) ListDepartments(ctx context.Context, creds Credentials) ([]models.Department, error) {
	return doList[models.Department](ctx, c, creds, newRequest(http.MethodGet, "/students/departments/"))
}

// CreateDepartment creates a department.
func (c *Client) CreateDepartment(ctx context.Context, creds Credentials, in dto.DepartmentRequest) error {
	r, err := newRequest(http.MethodPost, "/students/departments/manage/").withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// UpdateDepartment replaces a department.
func (c *Client) UpdateDepartment(ctx context.Context, creds Credentials, id int64, in dto.DepartmentRequest) error {
	r, err := newRequest(http.MethodPut, fmt.Sprintf("/students/departments/%d/", id)).withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// DeleteDepartment removes a department.
func (c *Client) DeleteDepartment(ctx context.Context, creds Credentials, id int64) error {
	return c.doJSON(ctx, creds, newRequest(http.MethodDelete, fmt.Sprintf("/students/departments/%d/", id)), nil)
}

// AcademicYear returns the current academic year baseline.
func (c *Client) AcademicYear(ctx context.Context, creds Credentials) (*models.AcademicYear, error) {
	var out models.AcademicYear
	if err := c.doJSON(ctx, creds, newRequest(http.MethodGet, "/students/academic-year/"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAcademicYear moves the baseline; the API recalculates every student's current year.
func (c *Client) UpdateAcademicYear(ctx context.Context, creds Credentials, year int) (*models.AcademicYear, error) {
	r, err := newRequest(http.MethodPut, "/students/academic-year/").withJSON(dto.AcademicYearRequest{CurrentYear: year})
	if err != nil {
		return nil, err
	}
	var out models.AcademicYear
	if err := c.doJSON(ctx, creds, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
