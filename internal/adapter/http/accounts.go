package http

import (
	"context"
	"net/http"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/service"
	"github.com/go-chi/chi/v5"
)

const msgUserCreated = "User created successfully"

// AccountService is the sign-in and profile API the account handler serves.
type AccountService interface {
	SendOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	GetUser(ctx context.Context, email string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) error
	UpdateUser(ctx context.Context, email string, patch domain.UserPatch) (string, error)
	DeleteUser(ctx context.Context, email string) (string, error)
	SetHomeLocation(ctx context.Context, email, postalCode string) (service.HomeLocation, string, error)
}

// AccountHandler serves OTP sign-in and user profile routes.
type AccountHandler struct {
	accounts AccountService
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register registers the account routes with the chi router.
func (h *AccountHandler) Register(r chi.Router) {
	r.Post("/auth/otp", h.handleSendOTP)
	r.Post("/auth/otp/verify", h.handleVerifyOTP)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.handleCreateUser)
		r.Get("/{email}", h.handleGetUser)
		r.Patch("/{email}", h.handleUpdateUser)
		r.Delete("/{email}", h.handleDeleteUser)
		r.Put("/{email}/home", h.handleSetHome)
	})
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *AccountHandler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.accounts.SendOTP(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, msg)
}

func (h *AccountHandler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.accounts.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, msg)
}

func (h *AccountHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := decodeBody(w, r, &user); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.CreateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, nil, msgUserCreated)
}

func (h *AccountHandler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	user, err := h.accounts.GetUser(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, user, "")
}

func (h *AccountHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	var patch domain.UserPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.accounts.UpdateUser(r.Context(), email, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, msg)
}

func (h *AccountHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	msg, err := h.accounts.DeleteUser(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, msg)
}

type homeRequest struct {
	Postcode string `json:"postcode"`
}

func (h *AccountHandler) handleSetHome(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	var req homeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	home, msg, err := h.accounts.SetHomeLocation(r.Context(), email, req.Postcode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, home, msg)
}

func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, err := pathParam(r, "email")
	if err != nil {
		writeError(w, domain.Invalid("invalid email encoding"))
		return "", false
	}
	return email, true
}
