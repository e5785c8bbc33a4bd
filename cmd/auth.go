package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aadi-novice/guardian/internal/credentials"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/server"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// AuthLogin signs in with username and password and persists the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	password := cmd.String("password")

	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	if password == "" {
		r.writePlain("Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	r.logger.Infof("signing in as %v", username)

	if err := r.session.Login(ctx, username, password); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	identity, _ := r.session.Identity()
	r.writePlain("✓ Signed in as %s\n", identity.FullName())
	return nil
}

// AuthGoogle signs in through the browser with Google and exchanges the ID
// credential for a platform session.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	if r.config.Google.ClientID == "" || r.config.Google.ClientSecret == "" {
		return fmt.Errorf("%w: google client_id and client_secret must be set in config.toml", shared.ErrInvalidConfig)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     r.config.Google.ClientID,
		ClientSecret: r.config.Google.ClientSecret,
		RedirectURL:  r.config.Google.RedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	token, err := r.doOAuth(oauthConfig)
	if err != nil {
		return err
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return fmt.Errorf("%w: no ID credential in the Google response", shared.ErrAuthFailed)
	}

	if err := r.session.LoginWithGoogle(ctx, idToken); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	identity, _ := r.session.Identity()
	r.writePlain("✓ Signed in as %s\n", identity.FullName())
	return nil
}

// AuthLogout clears the stored session. Purely local and safe to repeat.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.Logout()
	r.writePlain("✓ Signed out\n")
	return nil
}

// AuthStatus resolves the stored session and reports its state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.session.Initialize(ctx)

	identity, ok := r.session.Identity()
	if !ok {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Sign in with 'guardian auth login'\n")
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("User: %s (%s)\n", identity.FullName(), identity.Email)
	r.writePlain("Role: %s\n", identity.Role)

	if r.store != nil {
		if creds, ok := r.store.Load(); ok {
			if claims, err := credentials.PeekClaims(creds.AccessToken); err == nil && claims.ExpiresAt != nil {
				r.writePlain("Access token expires: %s\n", claims.ExpiresAt.Format(time.RFC3339))
			}
		}
	}
	return nil
}

// AuthRegister creates a new account. Field-level validation failures are
// printed per field instead of as a bare error.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	input := models.RegisterInput{
		Username:  cmd.String("username"),
		Email:     cmd.String("email"),
		Password:  cmd.String("password"),
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
	}

	result, err := r.session.Register(ctx, input)
	if err != nil {
		return err
	}

	if !result.Success {
		r.writePlain("✗ Registration rejected\n")
		for field, problems := range result.FieldErrors {
			for _, problem := range problems {
				r.writePlain("  %s: %s\n", field, problem)
			}
		}
		return fmt.Errorf("%w: registration rejected", shared.ErrInvalidInput)
	}

	r.writePlain("✓ Account created\n")
	if result.Message != "" {
		r.writePlain("%s\n", result.Message)
	}
	r.writePlain("Sign in with 'guardian auth login %s'\n", input.Username)
	return nil
}

// AuthForgotPassword requests a password reset email.
func (r *Runner) AuthForgotPassword(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	message, err := r.session.ForgotPassword(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ %s\n", message)
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	state := shared.GenerateID()
	authURL := oauthConfig.AuthCodeURL(state)

	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Google sign-in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
