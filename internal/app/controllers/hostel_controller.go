package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
)

const (
	hostelsView      = "dean/hostels"
	bankAccountsView = "dean/bank_accounts"
	feesView         = "dean/fees"

	hostelsPath      = "/dean/hostels"
	bankAccountsPath = "/dean/bank-accounts"
	feesPath         = "/dean/fees"
)

// HostelController serves the hostel catalogue: hostels, their bank accounts and fee schedules
type HostelController struct {
	records *services.RecordsService
	pages   *middleware.SessionMiddleware
	logger  zerolog.Logger
}

// NewHostelController creates a new HostelController
func NewHostelController(records *services.RecordsService, pages *middleware.SessionMiddleware, logger zerolog.Logger) *HostelController {
	return &HostelController{
		records: records,
		pages:   pages,
		logger:  logger,
	}
}

// Catalogue is a list, optionally scoped to one hostel, next to its create or edit form
type Catalogue[T any, F any] struct {
	Base     string
	Hostels  []models.Hostel
	HostelID int64
	Rows     []T
	EditID   int64
	Form     F
}

// Action is the form's submit target.
func (v Catalogue[T, F]) Action() string {
	if v.EditID > 0 {
		return v.Base + "/" + strconv.FormatInt(v.EditID, 10)
	}
	return v.Base
}

// Back is the list URL, keeping the hostel filter.
func (v Catalogue[T, F]) Back() string {
	if v.HostelID > 0 {
		return v.Base + "?hostel=" + strconv.FormatInt(v.HostelID, 10)
	}
	return v.Base
}

// EditPath is the URL that opens row id in the form.
func (v Catalogue[T, F]) EditPath(id int64) string {
	q := "?edit=" + strconv.FormatInt(id, 10)
	if v.HostelID > 0 {
		q += "&hostel=" + strconv.FormatInt(v.HostelID, 10)
	}
	return v.Base + q
}

// DeletePath is the delete target of row id, keeping the hostel filter for the redirect.
func (v Catalogue[T, F]) DeletePath(id int64) string {
	path := v.Base + "/" + strconv.FormatInt(id, 10) + "/delete"
	if v.HostelID > 0 {
		path += "?hostel=" + strconv.FormatInt(v.HostelID, 10)
	}
	return path
}

// prefill loads the row being edited into the form. An unknown id falls back to create.
func (v *Catalogue[T, F]) prefill(idOf func(T) int64, toForm func(T) F) {
	if v.EditID == 0 {
		return
	}
	for _, row := range v.Rows {
		if idOf(row) == v.EditID {
			v.Form = toForm(row)
			return
		}
	}
	v.EditID = 0
}

func queryID(c *gin.Context, key string) int64 {
	id, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// pathID reads the optional :id of a save route; zero means create.
func pathID(c *gin.Context) (int64, error) {
	if c.Param("id") == "" {
		return 0, nil
	}
	return middleware.ParamID(c, "id")
}

func savedMessage(id int64, noun string) string {
	if id > 0 {
		return noun + " updated successfully"
	}
	return noun + " created successfully"
}

// HostelsView is the data of the hostel page
type HostelsView = Catalogue[models.Hostel, dto.HostelRequest]

// Hostels lists hostels with their occupancy. ?edit=<id> fills the form.
func (ctl *HostelController) Hostels(c *gin.Context) {
	view := &HostelsView{Base: hostelsPath, EditID: queryID(c, "edit"), Form: dto.HostelRequest{HostelType: "boys"}}
	ctl.renderHostels(c, view, nil)
}

// SaveHostel creates a hostel, or updates the one in the path.
func (ctl *HostelController) SaveHostel(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		ctl.pages.RedirectWithError(c, err, hostelsPath)
		return
	}
	view := &HostelsView{Base: hostelsPath, EditID: id}
	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.renderHostels(c, view, err)
		return
	}
	if err := ctl.records.SaveHostel(c.Request.Context(), credentials(ctl.pages, c), id, view.Form); err != nil {
		ctl.renderHostels(c, view, err)
		return
	}
	succeed(ctl.pages, c, savedMessage(id, "Hostel"), hostelsPath)
}

func (ctl *HostelController) renderHostels(c *gin.Context, view *HostelsView, cause error) {
	page := ctl.pages.Page(c, "Hostels", "hostels")
	page.Data = view

	hostels, err := ctl.records.Hostels(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, hostelsView, page)
		return
	}
	view.Hostels = hostels
	view.Rows = hostels
	if cause != nil {
		ctl.pages.HandlePageError(c, cause, hostelsView, page)
		return
	}
	view.prefill(func(h models.Hostel) int64 { return h.ID }, func(h models.Hostel) dto.HostelRequest {
		return dto.HostelRequest{
			Code:                     h.Code,
			Name:                     h.Name,
			HostelType:               h.HostelType,
			Capacity:                 h.Capacity,
			MessFeesPerYear:          h.MessFeesPerYear,
			EstablishmentFeesPerYear: h.EstablishmentFeesPerYear,
		}
	})
	c.HTML(http.StatusOK, hostelsView, page)
}

// BankAccountsView is the data of the bank account page
type BankAccountsView = Catalogue[models.BankAccount, dto.BankAccountRequest]

// BankAccounts lists bank accounts. ?hostel=<id> narrows the list; ?edit=<id> fills the form.
func (ctl *HostelController) BankAccounts(c *gin.Context) {
	hostelID := queryID(c, "hostel")
	view := &BankAccountsView{
		Base:     bankAccountsPath,
		HostelID: hostelID,
		EditID:   queryID(c, "edit"),
		Form:     dto.BankAccountRequest{HostelID: hostelID, AccountType: "establishment", IsActive: true},
	}
	ctl.renderBankAccounts(c, view, nil)
}

// SaveBankAccount creates an account, or updates the one in the path.
func (ctl *HostelController) SaveBankAccount(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		ctl.pages.RedirectWithError(c, err, bankAccountsPath)
		return
	}
	view := &BankAccountsView{Base: bankAccountsPath, EditID: id}
	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.renderBankAccounts(c, view, err)
		return
	}
	view.HostelID = view.Form.HostelID
	if err := ctl.records.SaveBankAccount(c.Request.Context(), credentials(ctl.pages, c), id, view.Form); err != nil {
		ctl.renderBankAccounts(c, view, err)
		return
	}
	succeed(ctl.pages, c, savedMessage(id, "Bank account"), view.Back())
}

// DeleteBankAccount removes an account.
func (ctl *HostelController) DeleteBankAccount(c *gin.Context) {
	ctl.remove(c, bankAccountsPath, "Bank account", ctl.records.DeleteBankAccount)
}

func (ctl *HostelController) renderBankAccounts(c *gin.Context, view *BankAccountsView, cause error) {
	page := ctl.pages.Page(c, "Bank Accounts", "bank-accounts")
	page.Data = view

	creds := credentials(ctl.pages, c)
	hostels, err := ctl.records.Hostels(c.Request.Context(), creds)
	if err == nil {
		view.Hostels = hostels
		view.Rows, err = ctl.records.BankAccounts(c.Request.Context(), creds, view.HostelID)
	}
	if err != nil {
		ctl.pages.HandlePageError(c, err, bankAccountsView, page)
		return
	}
	if cause != nil {
		ctl.pages.HandlePageError(c, cause, bankAccountsView, page)
		return
	}
	view.prefill(func(b models.BankAccount) int64 { return b.ID }, func(b models.BankAccount) dto.BankAccountRequest {
		return dto.BankAccountRequest{
			HostelID:      b.Hostel,
			AccountType:   b.AccountType,
			BankName:      b.BankName,
			BranchName:    b.BranchName,
			AccountNumber: b.AccountNumber,
			IFSCCode:      b.IFSCCode,
			AccountName:   b.AccountName,
			IsActive:      b.IsActive,
		}
	})
	c.HTML(http.StatusOK, bankAccountsView, page)
}

// FeesView is the data of the yearly fee page
type FeesView = Catalogue[models.YearlyFee, dto.YearlyFeeRequest]

// Fees lists yearly fee schedules. ?hostel=<id> narrows the list; ?edit=<id> fills the form.
func (ctl *HostelController) Fees(c *gin.Context) {
	hostelID := queryID(c, "hostel")
	view := &FeesView{
		Base:     feesPath,
		HostelID: hostelID,
		EditID:   queryID(c, "edit"),
		Form:     dto.YearlyFeeRequest{HostelID: hostelID, Year: 1},
	}
	ctl.renderFees(c, view, nil)
}

// SaveFee creates a fee schedule, or updates the one in the path.
func (ctl *HostelController) SaveFee(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		ctl.pages.RedirectWithError(c, err, feesPath)
		return
	}
	view := &FeesView{Base: feesPath, EditID: id}
	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.renderFees(c, view, err)
		return
	}
	view.HostelID = view.Form.HostelID
	if err := ctl.records.SaveYearlyFee(c.Request.Context(), credentials(ctl.pages, c), id, view.Form); err != nil {
		ctl.renderFees(c, view, err)
		return
	}
	succeed(ctl.pages, c, savedMessage(id, "Fee structure"), view.Back())
}

// DeleteFee removes a fee schedule.
func (ctl *HostelController) DeleteFee(c *gin.Context) {
	ctl.remove(c, feesPath, "Fee structure", ctl.records.DeleteYearlyFee)
}

func (ctl *HostelController) renderFees(c *gin.Context, view *FeesView, cause error) {
	page := ctl.pages.Page(c, "Yearly Fees", "fees")
	page.Data = view

	creds := credentials(ctl.pages, c)
	hostels, err := ctl.records.Hostels(c.Request.Context(), creds)
	if err == nil {
		view.Hostels = hostels
		view.Rows, err = ctl.records.YearlyFees(c.Request.Context(), creds, view.HostelID)
	}
	if err != nil {
		ctl.pages.HandlePageError(c, err, feesView, page)
		return
	}
	if cause != nil {
		ctl.pages.HandlePageError(c, cause, feesView, page)
		return
	}
	view.prefill(func(f models.YearlyFee) int64 { return f.ID }, func(f models.YearlyFee) dto.YearlyFeeRequest {
		return dto.YearlyFeeRequest{
			HostelID:         f.Hostel,
			Year:             f.Year,
			EstablishmentFee: f.EstablishmentFee,
			MessFee:          f.MessFee,
		}
	})
	c.HTML(http.StatusOK, feesView, page)
}

type deleteFunc func(ctx context.Context, creds apiclient.Credentials, id int64) error

// remove deletes the record in the path and returns to the list, keeping ?hostel.
func (ctl *HostelController) remove(c *gin.Context, base, noun string, del deleteFunc) {
	back := base
	if hostelID := queryID(c, "hostel"); hostelID > 0 {
		back += "?hostel=" + strconv.FormatInt(hostelID, 10)
	}
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, back)
		return
	}
	if err := del(c.Request.Context(), credentials(ctl.pages, c), id); err != nil {
		ctl.pages.RedirectWithError(c, err, back)
		return
	}
	succeed(ctl.pages, c, noun+" deleted successfully", back)
}
