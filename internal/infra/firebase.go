// README: Firebase Admin SDK initialisation and ID-token verifier for customers and vendors.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// IDToken is the verified caller identity handed to the HTTP middleware.
type IDToken struct {
	UID    string
	Claims map[string]interface{}
}

// Role reads the custom "role" claim. Tokens without one belong to customers.
func (t *IDToken) Role() string {
	if t == nil {
		return ""
	}
	if r, ok := t.Claims["role"].(string); ok && r != "" {
		return r
	}
	return RoleCustomer
}

// VendorID returns the vendor a vendor-role account acts for. Accounts
// created before the vendor_id claim existed act for their own UID.
func (t *IDToken) VendorID() string {
	if t == nil {
		return ""
	}
	if v, ok := t.Claims["vendor_id"].(string); ok && v != "" {
		return v
	}
	return t.UID
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*IDToken, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier builds a TokenVerifier on the Admin SDK. An empty
// credentialsFile falls back to application-default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firebase: project id is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*IDToken, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &IDToken{UID: token.UID, Claims: token.Claims}, nil
}
