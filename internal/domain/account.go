package domain

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// postcodeRe matches UK postcodes including the GIR 0AA special case.
	postcodeRe = regexp.MustCompile(`(?i)^([A-Z][A-HJ-Y]?\d[A-Z\d]? ?\d[A-Z]{2}|GIR ?0A{2})$`)
	mobileRe   = regexp.MustCompile(`^[0-9]{10}$`)
)

const minimumAge = 13

// User is the profile stored by the account service.
type User struct {
	ID              string       `json:"id,omitempty"`
	Email           string       `json:"email"`
	Name            string       `json:"name"`
	Mobile          string       `json:"mobile"`
	DOB             string       `json:"dob"` // YYYY-M-D, zero padding optional
	CurrentLocation UserLocation `json:"currentLocation"`
	Preferences     Preferences  `json:"preferences"`
}

// UserLocation is a user's saved home location. Coordinates are stored as
// decimal strings.
type UserLocation struct {
	Latitude  string     `json:"latitude"`
	Longitude string     `json:"longitude"`
	Street    UserStreet `json:"street"`
}

// UserStreet names a saved location; Name holds the postcode for home areas.
type UserStreet struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Preferences are a user's alert settings.
type Preferences struct {
	AlertRadius        float64 `json:"alertRadius"`
	EmailNotifications bool    `json:"emailNotifications"`
	PushNotifications  bool    `json:"pushNotifications"`
}

// UserPatch carries a partial profile update; nil fields are left unchanged.
type UserPatch struct {
	Name            *string       `json:"name,omitempty"`
	Mobile          *string       `json:"mobile,omitempty"`
	DOB             *string       `json:"dob,omitempty"`
	CurrentLocation *UserLocation `json:"currentLocation,omitempty"`
	Preferences     *Preferences  `json:"preferences,omitempty"`
}

// HomeLocationPatch builds the patch that stores a resolved home postcode.
func HomeLocationPatch(postalCode string, c Coordinate) UserPatch {
	return UserPatch{
		CurrentLocation: &UserLocation{
			Latitude:  strconv.FormatFloat(c.Latitude, 'f', -1, 64),
			Longitude: strconv.FormatFloat(c.Longitude, 'f', -1, 64),
			Street:    UserStreet{Name: postalCode},
		},
	}
}

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Invalid("Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return Invalid("Invalid email format")
	}
	return nil
}

// ValidateOTP checks that a one-time password was supplied.
func ValidateOTP(otp string) error {
	if strings.TrimSpace(otp) == "" {
		return Invalid("OTP is required")
	}
	return nil
}

// ValidatePostcode checks UK postcode format.
func ValidatePostcode(postalCode string) error {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return Invalid("Postal code is required")
	}
	if !postcodeRe.MatchString(postalCode) {
		return Invalid("Invalid UK postal code")
	}
	return nil
}

// ValidateSignUp checks the profile fields collected during onboarding.
func ValidateSignUp(u User) error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if err := validateName(u.Name); err != nil {
		return err
	}
	if err := validateMobile(u.Mobile); err != nil {
		return err
	}
	if err := ValidateDOB(u.DOB); err != nil {
		return err
	}
	if !IsAlertRadiusOption(u.Preferences.AlertRadius) {
		return Invalid(fmt.Sprintf("alert radius must be one of %v miles", AlertRadiusOptions))
	}
	return nil
}

// ValidatePatch checks only the fields a patch sets.
func ValidatePatch(p UserPatch) error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Mobile != nil {
		if err := validateMobile(*p.Mobile); err != nil {
			return err
		}
	}
	if p.DOB != nil {
		if err := ValidateDOB(*p.DOB); err != nil {
			return err
		}
	}
	if p.Preferences != nil && !IsAlertRadiusOption(p.Preferences.AlertRadius) {
		return Invalid(fmt.Sprintf("alert radius must be one of %v miles", AlertRadiusOptions))
	}
	return nil
}

func validateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	switch {
	case n == 0:
		return Invalid("Name is required")
	case n < 2:
		return Invalid("Name too short")
	case n > 50:
		return Invalid("Name too long")
	}
	return nil
}

func validateMobile(mobile string) error {
	if mobile == "" {
		return Invalid("Mobile is required")
	}
	if !mobileRe.MatchString(mobile) {
		return Invalid("Mobile must be 10 digits")
	}
	return nil
}

// ValidateDOB checks a YYYY-M-D date of birth: it must exist, not be in the
// future, and make the user at least 13 years old.
func ValidateDOB(dob string) error {
	parts := strings.Split(strings.TrimSpace(dob), "-")
	if len(parts) != 3 {
		return Invalid("Invalid date (does not exist)")
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	day, errD := strconv.Atoi(parts[2])
	switch {
	case errY != nil || year < 1900 || year > 2099:
		return Invalid("Year must be between 1900-2099")
	case errM != nil || month < 1 || month > 12:
		return Invalid("Month must be between 1-12")
	case errD != nil || day < 1 || day > 31:
		return Invalid("Day must be between 1-31")
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return Invalid("Invalid date (does not exist)")
	}

	now := clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(today) {
		return Invalid("Date cannot be in the future")
	}
	if date.After(today.AddDate(-minimumAge, 0, 0)) {
		return Invalid("You must be at least 13 years old")
	}
	return nil
}
