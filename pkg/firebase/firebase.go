package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when no credentials path was supplied.
var ErrNotConfigured = errors.New("firebase credentials path not provided")

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, ErrNotConfigured
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// TokenIdentity is the subset of a verified ID token the app relies on.
type TokenIdentity struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Verifier checks Firebase ID tokens.
type Verifier struct {
	client *auth.Client
}

func NewVerifier(app *App) *Verifier {
	return &Verifier{client: app.AuthClient}
}

// Verify validates the ID token and extracts the caller's UID and email,
// along with whether the provider verified that email.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*TokenIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("id token carries no email claim")
	}
	verified, _ := token.Claims["email_verified"].(bool)
	return &TokenIdentity{UID: token.UID, Email: email, EmailVerified: verified}, nil
}
