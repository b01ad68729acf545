package cli

import (
	"context"
	"fmt"
)

// RunLogout удаляет локальную сессию и snapshot пользователя
func (c *Cli) RunLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.authService.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.success("Logout successful!")
	c.io.Println("Your local session has been deleted.")
	return nil
}
