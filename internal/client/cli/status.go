package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/forkful/internal/client/auth"
)

// RunStatus печатает состояние сессии
func (c *Cli) RunStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	authData, err := c.authService.Current(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotSignedIn) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'forkful login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	c.io.Println("Status: Authenticated")
	if authData.Username != "" {
		c.io.Printf("Username: %s\n", authData.Username)
	}
	c.io.Printf("Actor: %s\n", authData.ActorID)

	if authData.ExpiresAt == 0 {
		c.io.Println("Token expires: never")
		return nil
	}
	expiresAt := time.Unix(authData.ExpiresAt, 0)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	c.io.Printf("Time remaining: %s\n", time.Until(expiresAt).Round(time.Second))
	return nil
}
