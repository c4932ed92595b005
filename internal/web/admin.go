package web

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/luisvx/inboxcode/internal/database"
	"github.com/luisvx/inboxcode/internal/notify"
	"github.com/luisvx/inboxcode/pkg/models"
)

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return false
	}
	return true
}

// --- resellers ---

type resellerRequest struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,min=7"`
	ResetPIN string `json:"reset_pin" validate:"omitempty,numeric,len=4"`
}

func (s *Server) handleListResellers(w http.ResponseWriter, r *http.Request) {
	resellers, err := s.db.ListResellers(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resellers)
}

func (s *Server) handleCreateReseller(w http.ResponseWriter, r *http.Request) {
	var req resellerRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	reseller := &models.Reseller{Name: req.Name, Phone: req.Phone, ResetPIN: req.ResetPIN}
	if err := s.db.CreateReseller(r.Context(), reseller); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reseller)
}

func (s *Server) handleGetReseller(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	reseller, err := s.db.GetResellerByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reseller)
}

func (s *Server) handleUpdateReseller(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	var req resellerRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	reseller := &models.Reseller{ID: id, Name: req.Name, Phone: req.Phone, ResetPIN: req.ResetPIN}
	if err := s.db.UpdateReseller(r.Context(), reseller); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reseller)
}

func (s *Server) handleDeleteReseller(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	if err := s.db.DeleteReseller(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResellerAccounts(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	accounts, err := s.db.ListAccountsByReseller(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// handleExpiredReport builds a WhatsApp reminder link listing a reseller's
// lapsed accounts. The operator opens the link; nothing is sent from here.
func (s *Server) handleExpiredReport(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	reseller, err := s.db.GetResellerByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	expired, err := s.db.ListExpiredAccountsByReseller(r.Context(), id, time.Now())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if len(expired) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"count": 0})
		return
	}
	link := notify.WhatsAppLink(reseller.Phone, notify.ExpiredReport(reseller, expired))
	writeJSON(w, http.StatusOK, map[string]any{"count": len(expired), "link": link})
}

// handleGeneratePIN rotates a reseller's reset PIN to a fresh random 4-digit
// value and returns the updated record. The old PIN stops working immediately
// for every account the reseller owns.
func (s *Server) handleGeneratePIN(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	reseller, err := s.db.GetResellerByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	pin, err := generatePIN()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	reseller.ResetPIN = pin

	if err := s.db.UpdateReseller(r.Context(), reseller); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reseller)
}

func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// --- customers ---

type customerRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"omitempty,min=7"`
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.db.ListCustomers(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	customer := &models.Customer{Name: req.Name, Phone: req.Phone}
	if err := s.db.CreateCustomer(r.Context(), customer); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	customer, err := s.db.GetCustomerByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	var req customerRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	customer := &models.Customer{ID: id, Name: req.Name, Phone: req.Phone}
	if err := s.db.UpdateCustomer(r.Context(), customer); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	if err := s.db.DeleteCustomer(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCustomerAccounts(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	accounts, err := s.db.ListAccountsByCustomer(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// --- accounts ---

type createAccountsRequest struct {
	Emails     []string `json:"emails" validate:"required,min=1,dive,required,email"`
	ResellerID int64    `json:"reseller_id" validate:"required_without=CustomerID,excluded_with=CustomerID"`
	CustomerID int64    `json:"customer_id" validate:"required_without=ResellerID"`
	PIN        string   `json:"pin" validate:"omitempty,numeric,len=4"`
	Days       int      `json:"days" validate:"omitempty,min=1,max=365"`
}

type createAccountsResponse struct {
	Created []*models.Account `json:"created"`
	Skipped []string          `json:"skipped,omitempty"`
}

// handleCreateAccounts creates one or more accounts for a single owner. New
// accounts start with every filter enabled and a 30-day subscription unless
// days says otherwise. Duplicate addresses are skipped, not fatal.
func (s *Server) handleCreateAccounts(w http.ResponseWriter, r *http.Request) {
	var req createAccountsRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	// The owner must exist up front; otherwise every insert would fail on
	// the foreign key and surface as an internal error
	var ownerErr error
	if req.ResellerID != 0 {
		_, ownerErr = s.db.GetResellerByID(r.Context(), req.ResellerID)
	} else {
		_, ownerErr = s.db.GetCustomerByID(r.Context(), req.CustomerID)
	}
	if ownerErr != nil {
		s.writeStoreError(w, ownerErr)
		return
	}

	days := req.Days
	if days == 0 {
		days = 30
	}
	now := time.Now()

	resp := createAccountsResponse{}
	for _, email := range req.Emails {
		account := &models.Account{
			Email:             email,
			IsActive:          true,
			FilterSessionCode: true,
			FilterDeviceAlert: true,
			FilterHomeUpdate:  true,
			FilterTempCode:    true,
			PurchasedAt:       now,
			ExpiresAt:         now.AddDate(0, 0, days),
		}
		if req.PIN != "" {
			account.PIN = sql.NullString{String: req.PIN, Valid: true}
		}
		if req.ResellerID != 0 {
			account.ResellerID = sql.NullInt64{Int64: req.ResellerID, Valid: true}
		} else {
			account.CustomerID = sql.NullInt64{Int64: req.CustomerID, Valid: true}
		}

		err := s.db.CreateAccount(r.Context(), account)
		if errors.Is(err, database.ErrAlreadyExists) {
			resp.Skipped = append(resp.Skipped, email)
			continue
		}
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		resp.Created = append(resp.Created, account)
		s.provisionAlias(r, account.Email)
	}

	writeJSON(w, http.StatusCreated, resp)
}

// provisionAlias routes a newly created address to the shared inbox when
// Mailcow provisioning is configured. Failures are logged, not fatal: the
// address may already exist server-side.
func (s *Server) provisionAlias(r *http.Request, email string) {
	if s.mailcow == nil {
		return
	}
	if err := s.mailcow.CreateAlias(r.Context(), email); err != nil {
		s.logger.Warn("failed to provision alias", "email", email, "error", err)
	}
}

type updateFiltersRequest struct {
	IsActive          bool   `json:"is_active"`
	FilterSessionCode bool   `json:"filter_session_code"`
	FilterDeviceAlert bool   `json:"filter_device_alert"`
	FilterHomeUpdate  bool   `json:"filter_home_update"`
	FilterTempCode    bool   `json:"filter_temp_code"`
	PIN               string `json:"pin" validate:"omitempty,numeric,len=4"`
}

func (s *Server) handleUpdateAccountFilters(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	var req updateFiltersRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	account, err := s.db.GetAccountByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	account.IsActive = req.IsActive
	account.FilterSessionCode = req.FilterSessionCode
	account.FilterDeviceAlert = req.FilterDeviceAlert
	account.FilterHomeUpdate = req.FilterHomeUpdate
	account.FilterTempCode = req.FilterTempCode
	account.PIN = sql.NullString{String: req.PIN, Valid: req.PIN != ""}

	if err := s.db.UpdateAccountFilters(r.Context(), account); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type renewRequest struct {
	Days int `json:"days" validate:"omitempty,min=1,max=365"`
}

func (s *Server) handleRenewAccount(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}
	req := renewRequest{}
	if r.ContentLength > 0 && !s.decodeValid(w, r, &req) {
		return
	}
	if req.Days == 0 {
		req.Days = 30
	}

	account, err := s.db.RenewAccount(r.Context(), id, req.Days)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Solicitud inválida.")
		return
	}

	account, err := s.db.GetAccountByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.db.DeleteAccount(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}

	if s.mailcow != nil {
		if err := s.mailcow.DeleteAlias(r.Context(), account.Email); err != nil {
			s.logger.Warn("failed to deprovision alias", "email", account.Email, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
