// Package proto holds the wire contract of the vaultwatch gRPC service:
// message types, the JSON codec they travel with and the service descriptor.
package proto

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse answers both Login and RefreshToken.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// Secret is the list projection of a stored credential. It never carries
// the secret value.
type Secret struct {
	ID            string     `json:"id"`
	Label         string     `json:"label"`
	AccountName   string     `json:"account_name"`
	ExposureCount int64      `json:"exposure_count"`
	ExposureState string     `json:"exposure_state"`
	LastChecked   *time.Time `json:"last_checked,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type CreateSecretRequest struct {
	Label       string `json:"label"`
	AccountName string `json:"account_name"`
	Password    string `json:"password"`
}

type UpdateSecretRequest struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	AccountName string `json:"account_name"`
	Password    string `json:"password"`
}

type SecretResponse struct {
	Secret *Secret `json:"secret"`
}

type ListSecretsRequest struct{}

type ListSecretsResponse struct {
	Secrets []*Secret `json:"secrets"`
}

type RevealSecretRequest struct {
	ID string `json:"id"`
}

type RevealSecretResponse struct {
	Password string `json:"password"`
}

type DeleteSecretRequest struct {
	ID string `json:"id"`
}

type DeleteSecretResponse struct{}

type CheckSecretRequest struct {
	Password string `json:"password"`
}

// CheckSecretResponse reports a lookup: Status is "clean", "exposed" or
// "unknown".
type CheckSecretResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type WatchAlertsRequest struct{}

type BreachAlert struct {
	Label         string `json:"label"`
	AccountName   string `json:"account_name"`
	ExposureCount int64  `json:"exposure_count"`
	RecordID      string `json:"record_id"`
}

// AlertEvent is one message of the WatchAlerts stream.
type AlertEvent struct {
	Event string       `json:"event"`
	Alert *BreachAlert `json:"data"`
}
