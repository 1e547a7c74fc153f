package services

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ledgerbank/backend/internal/auth"
)

const dateLayout = "2006-01-02"

func principalFrom(r *http.Request) (auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return nil, errUnauthenticated
	}
	return p, nil
}

// resolveAccount returns the account a request acts on. Customers act on
// their linked account only; staff must name one.
func resolveAccount(p auth.Principal, requested *int64) (int64, error) {
	switch p := p.(type) {
	case auth.Customer:
		if requested != nil && *requested != p.AccountID {
			return 0, errForbidden
		}
		return p.AccountID, nil
	case auth.Employee, auth.Admin:
		if requested == nil {
			return 0, errAccountRequired
		}
		if *requested <= 0 {
			return 0, errInvalidID
		}
		return *requested, nil
	default:
		return 0, errForbidden
	}
}

// queryAccountID reads the optional account_id query parameter.
func queryAccountID(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("account_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errInvalidID
	}
	return &id, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, errInvalidDate
	}
	return &t, nil
}
