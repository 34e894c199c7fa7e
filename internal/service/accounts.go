package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
)

// unknownStreet labels a saved location that has no postcode yet.
const unknownStreet = "Unknown"

// HomeLocation is a user's saved home postcode and its coordinates.
type HomeLocation struct {
	PostalCode string            `json:"postal_code"`
	Center     domain.Coordinate `json:"center"`
}

// Accounts validates sign-in and profile requests before forwarding them to
// the account upstream.
type Accounts struct {
	store    domain.AccountStore
	resolver domain.LocationResolver
	logger   *slog.Logger
}

// NewAccounts creates an Accounts service.
func NewAccounts(store domain.AccountStore, resolver domain.LocationResolver, logger *slog.Logger) *Accounts {
	return &Accounts{store: store, resolver: resolver, logger: logger}
}

// SendOTP emails a one-time password.
func (a *Accounts) SendOTP(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := domain.ValidateEmail(email); err != nil {
		return "", err
	}
	return a.store.SendOTP(ctx, email)
}

// VerifyOTP checks a one-time password.
func (a *Accounts) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	email = strings.TrimSpace(email)
	if err := domain.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := domain.ValidateOTP(otp); err != nil {
		return "", err
	}
	return a.store.VerifyOTP(ctx, email, strings.TrimSpace(otp))
}

// GetUser fetches the profile registered under email.
func (a *Accounts) GetUser(ctx context.Context, email string) (domain.User, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return domain.User{}, err
	}
	return a.store.GetUser(ctx, email)
}

// CreateUser validates a sign-up profile and registers it.
func (a *Accounts) CreateUser(ctx context.Context, user domain.User) error {
	user.Email = strings.TrimSpace(user.Email)
	user.Name = strings.TrimSpace(user.Name)
	if err := domain.ValidateSignUp(user); err != nil {
		return err
	}
	if user.CurrentLocation.Street.Name == "" {
		user.CurrentLocation.Street.Name = unknownStreet
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return err
	}
	a.logger.Info("user created", "email", user.Email)
	return nil
}

// UpdateUser applies a validated partial profile update.
func (a *Accounts) UpdateUser(ctx context.Context, email string, patch domain.UserPatch) (string, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := domain.ValidatePatch(patch); err != nil {
		return "", err
	}
	return a.store.UpdateUser(ctx, email, patch)
}

// DeleteUser removes the profile registered under email.
func (a *Accounts) DeleteUser(ctx context.Context, email string) (string, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return "", err
	}
	msg, err := a.store.DeleteUser(ctx, email)
	if err != nil {
		return "", err
	}
	a.logger.Info("user deleted", "email", email)
	return msg, nil
}

// SetHomeLocation checks the UK postcode format, resolves it, and saves the
// coordinates as the user's current location.
func (a *Accounts) SetHomeLocation(ctx context.Context, email, postalCode string) (HomeLocation, string, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return HomeLocation{}, "", err
	}
	postalCode = strings.ToUpper(strings.TrimSpace(postalCode))
	if err := domain.ValidatePostcode(postalCode); err != nil {
		return HomeLocation{}, "", err
	}

	center, err := a.resolver.ResolveCoordinates(ctx, postalCode)
	if err != nil {
		return HomeLocation{}, "", err
	}

	msg, err := a.store.UpdateUser(ctx, email, domain.HomeLocationPatch(postalCode, center))
	if err != nil {
		return HomeLocation{}, "", err
	}
	return HomeLocation{PostalCode: postalCode, Center: center}, msg, nil
}
