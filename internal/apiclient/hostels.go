package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
)

// ListHostels lists hostels.
func (c *Client) ListHostels(ctx context.Context, creds Credentials) ([]models.Hostel, error) {
	return doList[models.Hostel](ctx, c, creds, newRequest(http.MethodGet, "/hostels/"))
}

// GetHostel returns one hostel.
func (c *Client) GetHostel(ctx context.Context, creds Credentials, id int64) (*models.Hostel, error) {
	var out models.Hostel
	if err := c.doJSON(ctx, creds, newRequest(http.MethodGet, fmt.Sprintf("/hostels/%d/", id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateHostel creates a hostel.
func (c *Client) CreateHostel(ctx context.Context, creds Credentials, in dto.HostelRequest) error {
	r, err := newRequest(http.MethodPost, "/hostels/create/").withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// UpdateHostel replaces a hostel.
func (c *Client) UpdateHostel(ctx context.Context, creds Credentials, id int64, in dto.HostelRequest) error {
	r, err := newRequest(http.MethodPut, fmt.Sprintf("/hostels/%d/", id)).withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// ListWardenProfiles lists warden profiles with their hostel assignment.
func (c *Client) ListWardenProfiles(ctx context.Context, creds Credentials) ([]models.WardenProfile, error) {
	return doList[models.WardenProfile](ctx, c, creds, newRequest(http.MethodGet, "/hostels/wardens/"))
}

// CreateWardenProfile attaches a hostel profile to a warden account.
func (c *Client) CreateWardenProfile(ctx context.Context, creds Credentials, in dto.WardenProfileRequest) error {
	r, err := newRequest(http.MethodPost, "/hostels/warden/create/").withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// UpdateWardenProfile patches a warden profile.
func (c *Client) UpdateWardenProfile(ctx context.Context, creds Credentials, id int64, in dto.WardenProfileRequest) error {
	r, err := newRequest(http.MethodPatch, fmt.Sprintf("/hostels/wardens/%d/", id)).withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// DeleteWardenProfile removes a warden profile.
func (c *Client) DeleteWardenProfile(ctx context.Context, creds Credentials, id int64) error {
	return c.doJSON(ctx, creds, newRequest(http.MethodDelete, fmt.Sprintf("/hostels/wardens/%d/", id)), nil)
}

func hostelQuery(hostelID int64) url.Values {
	if hostelID <= 0 {
		return nil
	}
	return url.Values{"hostel": []string{strconv.FormatInt(hostelID, 10)}}
}

// ListBankAccounts lists bank accounts, optionally for one hostel (hostelID > 0).
func (c *Client) ListBankAccounts(ctx context.Context, creds Credentials, hostelID int64) ([]models.BankAccount, error) {
	r := newRequest(http.MethodGet, "/hostels/bank-accounts/").withQuery(hostelQuery(hostelID))
	return doList[models.BankAccount](ctx, c, creds, r)
}

// CreateBankAccount creates a bank account.
func (c *Client) CreateBankAccount(ctx context.Context, creds Credentials, in dto.BankAccountRequest) error {
	r, err := newRequest(http.MethodPost, "/hostels/bank-accounts/").withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// UpdateBankAccount replaces a bank account.
func (c *Client) UpdateBankAccount(ctx context.Context, creds Credentials, id int64, in dto.BankAccountRequest) error {
	r, err := newRequest(http.MethodPut, fmt.Sprintf("/hostels/bank-accounts/%d/", id)).withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// DeleteBankAccount removes a bank account.
func (c *Client) DeleteBankAccount(ctx context.Context, creds Credentials, id int64) error {
	return c.doJSON(ctx, creds, newRequest(http.MethodDelete, fmt.Sprintf("/hostels/bank-accounts/%d/", id)), nil)
}

// ListYearlyFees lists fee schedules, optionally for one hostel (hostelID > 0).
func (c *Client) ListYearlyFees(ctx context.Context, creds Credentials, hostelID int64) ([]models.YearlyFee, error) {
	r := newRequest(http.MethodGet, "/hostels/yearly-fees/").withQuery(hostelQuery(hostelID))
	return doList[models.YearlyFee](ctx, c, creds, r)
}

// CreateYearlyFee creates a fee schedule.
func (c *Client) CreateYearlyFee(ctx context.Context, creds Credentials, in dto.YearlyFeeRequest) error {
	r, err := newRequest(http.MethodPost, "/hostels/yearly-fees/").withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// UpdateYearlyFee replaces a fee schedule.
func (c *Client) UpdateYearlyFee(ctx context.Context, creds Credentials, id int64, in dto.YearlyFeeRequest) error {
	r, err := newRequest(http.MethodPut, fmt.Sprintf("/hostels/yearly-fees/%d/", id)).withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// DeleteYearlyFee removes a fee schedule.
func (c *Client) DeleteYearlyFee(ctx context.Context, creds Credentials, id int64) error {
	return c.doJSON(ctx, creds, newRequest(http.MethodDelete, fmt.Sprintf("/hostels/yearly-fees/%d/", id)), nil)
}
