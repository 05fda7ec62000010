package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/validation"
)

// Years of study reported on the student directory.
const StudyYears = 4

// RecordsService administers the reference records owned by the dean. The API enforces every
// business rule; this layer validates presence and format before calling it.
type RecordsService struct {
	api    *apiclient.Client
	logger zerolog.Logger
}

// NewRecordsService creates a new RecordsService
func NewRecordsService(api *apiclient.Client, logger zerolog.Logger) *RecordsService {
	return &RecordsService{api: api, logger: logger}
}

// StudentDirectory is the filtered student list plus per-year counts of the whole roll
type StudentDirectory struct {
	Students []models.Student
	Total    int
	ByYear   [StudyYears]int
}

// Students lists students matching f. Counts are computed over every student.
func (s *RecordsService) Students(ctx context.Context, creds apiclient.Credentials, f dto.StudentFilter) (*StudentDirectory, error) {
	all, err := s.api.ListStudents(ctx, creds)
	if err != nil {
		return nil, err
	}

	dir := &StudentDirectory{Total: len(all), Students: make([]models.Student, 0, len(all))}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, st := range all {
		if st.CurrentYear >= 1 && st.CurrentYear <= StudyYears {
			dir.ByYear[st.CurrentYear-1]++
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(st.Name), search) &&
			!strings.Contains(strings.ToLower(st.RegisterNumber), search) {
			continue
		}
		if f.DepartmentID > 0 && (st.Department == nil || *st.Department != f.DepartmentID) {
			continue
		}
		if f.Year > 0 && st.CurrentYear != f.Year {
			continue
		}
		if f.HostelID > 0 && (st.Hostel == nil || *st.Hostel != f.HostelID) {
			continue
		}
		dir.Students = append(dir.Students, st)
	}
	return dir, nil
}

// Student returns one student record.
func (s *RecordsService) Student(ctx context.Context, creds apiclient.Credentials, id int64) (*models.Student, error) {
	return s.api.GetStudent(ctx, creds, id)
}

// CreateStudent validates and creates a student. A password is required for new students.
func (s *RecordsService) CreateStudent(ctx context.Context, creds apiclient.Credentials, req dto.StudentRequest) (*models.Student, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "Password is required").
			WithFields(map[string]string{"password": "Password is required"})
	}
	st, err := s.api.CreateStudent(ctx, creds, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("registerNumber", req.RegisterNumber).Msg("Student created")
	return st, nil
}

// UpdateStudent validates and updates a student. An empty password leaves it unchanged.
func (s *RecordsService) UpdateStudent(ctx context.Context, creds apiclient.Credentials, id int64, req dto.StudentRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	return s.api.UpdateStudent(ctx, creds, id, req)
}

// ResetStudentPassword sets a new password for a student.
func (s *RecordsService) ResetStudentPassword(ctx context.Context, creds apiclient.Credentials, id int64, req dto.ResetPasswordRequest) error {
	if err := requirePassword(req); err != nil {
		return err
	}
	if err := s.api.ResetStudentPassword(ctx, creds, id, req.Password); err != nil {
		return err
	}
	s.logger.Info().Int64("studentID", id).Msg("Student password reset")
	return nil
}

// DeleteStudent removes a student.
func (s *RecordsService) DeleteStudent(ctx context.Context, creds apiclient.Credentials, id int64) error {
	return s.api.DeleteStudent(ctx, creds, id)
}

// BulkUpload imports a spreadsheet of students.
func (s *RecordsService) BulkUpload(ctx context.Context, creds apiclient.Credentials, file *models.Attachment) (*models.BulkUploadResult, error) {
	if file == nil || file.Size == 0 {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "Please select a file").
			WithFields(map[string]string{"file": "Please select a file"})
	}
	res, err := s.api.BulkUploadStudents(ctx, creds, *file)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("file", file.Filename).Int("created", res.CreatedCount()).Int("errors", len(res.Errors)).Msg("Bulk upload processed")
	return res, nil
}

// Departments lists departments.
func (s *RecordsService) Departments(ctx context.Context, creds apiclient.Credentials) ([]models.Department, error) {
	return s.api.ListDepartments(ctx, creds)
}

// SaveDepartment creates the department when id is zero and updates it otherwise.
func (s *RecordsService) SaveDepartment(ctx context.Context, creds apiclient.Credentials, id int64, req dto.DepartmentRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if id == 0 {
		return s.api.CreateDepartment(ctx, creds, req)
	}
	return s.api.UpdateDepartment(ctx, creds, id, req)
}

// DeleteDepartment removes a department.
func (s *RecordsService) DeleteDepartment(ctx context.Context, creds apiclient.Credentials, id int64) error {
	return s.api.DeleteDepartment(ctx, creds, id)
}

// AcademicYear returns the current academic year baseline.
func (s *RecordsService) AcademicYear(ctx context.Context, creds apiclient.Credentials) (*models.AcademicYear, error) {
	return s.api.AcademicYear(ctx, creds)
}

// UpdateAcademicYear moves the baseline. The API recalculates every student's current year.
func (s *RecordsService) UpdateAcademicYear(ctx context.Context, creds apiclient.Credentials, req dto.AcademicYearRequest) (*models.AcademicYear, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	year, err := s.api.UpdateAcademicYear(ctx, creds, req.CurrentYear)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("year", req.CurrentYear).Int("studentsUpdated", year.StudentsUpdated).Msg("Academic year updated")
	return year, nil
}

// Hostels lists hostels.
func (s *RecordsService) Hostels(ctx context.Context, creds apiclient.Credentials) ([]models.Hostel, error) {
	return s.api.ListHostels(ctx, creds)
}

// Hostel returns one hostel.
func (s *RecordsService) Hostel(ctx context.Context, creds apiclient.Credentials, id int64) (*models.Hostel, error) {
	return s.api.GetHostel(ctx, creds, id)
}

// SaveHostel creates the hostel when id is zero and updates it otherwise.
func (s *RecordsService) SaveHostel(ctx context.Context, creds apiclient.Credentials, id int64, req dto.HostelRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if id == 0 {
		return s.api.CreateHostel(ctx, creds, req)
	}
	return s.api.UpdateHostel(ctx, creds, id, req)
}

// Wardens lists warden profiles.
func (s *RecordsService) Wardens(ctx context.Context, creds apiclient.Credentials) ([]models.WardenProfile, error) {
	return s.api.ListWardenProfiles(ctx, creds)
}

// CreateWarden creates the login account and then the hostel profile linked to it. If the
// profile cannot be created the account is removed again.
func (s *RecordsService) CreateWarden(ctx context.Context, creds apiclient.Credentials, req dto.WardenRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	fields := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "Username is required"
	}
	if strings.TrimSpace(req.Password) == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		msg := fields["username"]
		if msg == "" {
			msg = fields["password"]
		}
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, msg).WithFields(fields)
	}

	account, err := s.api.CreateWardenAccount(ctx, creds, apiclient.WardenAccountInput{
		Username:  strings.TrimSpace(req.Username),
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      string(models.RoleNameWarden),
	})
	if err != nil {
		return err
	}

	err = s.api.CreateWardenProfile(ctx, creds, dto.WardenProfileRequest{
		UserID:      account.ID,
		HostelID:    hostelRef(req.HostelID),
		Name:        req.FullName(),
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	})
	if err != nil {
		if delErr := s.api.DeleteWardenAccount(context.WithoutCancel(ctx), creds, account.ID); delErr != nil {
			s.logger.Error().Err(delErr).Int64("userID", account.ID).Msg("Failed to remove warden account after profile error")
		}
		return err
	}

	s.logger.Info().Str("username", account.Username).Int64("hostel", req.HostelID).Msg("Warden created")
	return nil
}

// UpdateWarden updates the hostel profile and then the login account behind it.
func (s *RecordsService) UpdateWarden(ctx context.Context, creds apiclient.Credentials, profileID, accountID int64, req dto.WardenRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	err := s.api.UpdateWardenProfile(ctx, creds, profileID, dto.WardenProfileRequest{
		HostelID:    hostelRef(req.HostelID),
		Name:        req.FullName(),
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	})
	if err != nil {
		return err
	}
	if accountID == 0 {
		return nil
	}
	return s.api.UpdateWardenAccount(ctx, creds, accountID, apiclient.WardenAccountInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
}

// ResetWardenPassword sets a new password on a warden's login account.
func (s *RecordsService) ResetWardenPassword(ctx context.Context, creds apiclient.Credentials, accountID int64, req dto.ResetPasswordRequest) error {
	if err := requirePassword(req); err != nil {
		return err
	}
	if accountID == 0 {
		return apperrors.NewCustomError(apperrors.ErrResourceNotFound, "This warden has no login account")
	}
	if err := s.api.UpdateWardenAccount(ctx, creds, accountID, apiclient.WardenAccountInput{Password: req.Password}); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", accountID).Msg("Warden password reset")
	return nil
}

// DeleteWarden removes a warden profile. The login account is kept.
func (s *RecordsService) DeleteWarden(ctx context.Context, creds apiclient.Credentials, profileID int64) error {
	return s.api.DeleteWardenProfile(ctx, creds, profileID)
}

// BankAccounts lists bank accounts, optionally of one hostel.
func (s *RecordsService) BankAccounts(ctx context.Context, creds apiclient.Credentials, hostelID int64) ([]models.BankAccount, error) {
	return s.api.ListBankAccounts(ctx, creds, hostelID)
}

// SaveBankAccount creates the account when id is zero and updates it otherwise.
func (s *RecordsService) SaveBankAccount(ctx context.Context, creds apiclient.Credentials, id int64, req dto.BankAccountRequest) error {
	req.IFSCCode = strings.ToUpper(strings.TrimSpace(req.IFSCCode))
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	if err := validation.Struct(req); err != nil {
		return err
	}
	if id == 0 {
		return s.api.CreateBankAccount(ctx, creds, req)
	}
	return s.api.UpdateBankAccount(ctx, creds, id, req)
}

// DeleteBankAccount removes a bank account.
func (s *RecordsService) DeleteBankAccount(ctx context.Context, creds apiclient.Credentials, id int64) error {
	return s.api.DeleteBankAccount(ctx, creds, id)
}

// YearlyFees lists fee schedules, optionally of one hostel.
func (s *RecordsService) YearlyFees(ctx context.Context, creds apiclient.Credentials, hostelID int64) ([]models.YearlyFee, error) {
	return s.api.ListYearlyFees(ctx, creds, hostelID)
}

// SaveYearlyFee creates the fee schedule when id is zero and updates it otherwise.
func (s *RecordsService) SaveYearlyFee(ctx context.Context, creds apiclient.Credentials, id int64, req dto.YearlyFeeRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if id == 0 {
		return s.api.CreateYearlyFee(ctx, creds, req)
	}
	return s.api.UpdateYearlyFee(ctx, creds, id, req)
}

// DeleteYearlyFee removes a fee schedule.
func (s *RecordsService) DeleteYearlyFee(ctx context.Context, creds apiclient.Credentials, id int64) error {
	return s.api.DeleteYearlyFee(ctx, creds, id)
}

// DeanProfile returns the signatory profile. A missing profile is returned empty.
func (s *RecordsService) DeanProfile(ctx context.Context, creds apiclient.Credentials) (*models.DeanProfile, error) {
	profile, err := s.api.DeanProfile(ctx, creds)
	if errors.Is(err, apperrors.ErrResourceNotFound) {
		return &models.DeanProfile{}, nil
	}
	return profile, err
}

// UpdateDeanProfile requires a name and a phone number.
func (s *RecordsService) UpdateDeanProfile(ctx context.Context, creds apiclient.Credentials, req dto.DeanProfileRequest) (*models.DeanProfile, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.api.UpdateDeanProfile(ctx, creds, models.DeanProfile{
		Name:        strings.TrimSpace(req.Name),
		Designation: strings.TrimSpace(req.Designation),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Email:       strings.TrimSpace(req.Email),
	})
}

// Settings returns the request settings.
func (s *RecordsService) Settings(ctx context.Context, creds apiclient.Credentials) (*models.BonafideSettings, error) {
	return s.api.Settings(ctx, creds)
}

// UpdateSettings changes the cooldown policy.
func (s *RecordsService) UpdateSettings(ctx context.Context, creds apiclient.Credentials, req dto.SettingsRequest) (*models.BonafideSettings, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	settings, err := s.api.UpdateSettings(ctx, creds, models.CooldownPeriod(req.CooldownPeriod))
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("cooldown", req.CooldownPeriod).Msg("Cooldown period updated")
	return settings, nil
}

func requirePassword(req dto.ResetPasswordRequest) error {
	if strings.TrimSpace(req.Password) == "" {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Please enter a new password").
			WithFields(map[string]string{"password": "Please enter a new password"})
	}
	return nil
}

func hostelRef(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
