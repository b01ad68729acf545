package cli

import (
	"context"
	"time"
)

// RunLogin сохраняет сессию по access token
func (c *Cli) RunLogin(ctx context.Context, tokens Tokens) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	token, err := c.getToken(tokens)
	if err != nil {
		return err
	}

	authData, err := c.authService.Login(ctx, token)
	if err != nil {
		return err
	}

	c.io.Println()
	c.success("Login successful!")
	if authData.Username != "" {
		c.io.Printf("Username: %s\n", authData.Username)
	}
	c.io.Printf("Actor: %s\n", authData.ActorID)
	if authData.ExpiresAt > 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(authData.ExpiresAt, 0).Format(time.RFC3339))
	}
	return nil
}
