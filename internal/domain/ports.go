package domain

import "context"

// LocationResolver converts a postal code to coordinates.
type LocationResolver interface {
	ResolveCoordinates(ctx context.Context, postalCode string) (Coordinate, error)
}

// IncidentSource returns the raw, uncapped incidents near a coordinate.
type IncidentSource interface {
	NearbyIncidents(ctx context.Context, center Coordinate, radiusMiles float64) ([]Incident, error)
}

// Predictor returns a crime-category prediction for a location and month.
type Predictor interface {
	Predict(ctx context.Context, center Coordinate, month string) (PredictionResult, error)
}

// DigestPublisher fans incident digests out to alerting consumers.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, digest Digest) error
}

// AccountStore is the upstream that owns OTP sign-in and user profiles.
type AccountStore interface {
	SendOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	GetUser(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, email string, patch UserPatch) (string, error)
	DeleteUser(ctx context.Context, email string) (string, error)
}
