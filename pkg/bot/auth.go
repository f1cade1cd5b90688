package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"github.com/rakuworks/pdbot/pkg/config"
	"github.com/rakuworks/pdbot/pkg/logger"
	"github.com/rakuworks/pdbot/pkg/pdb"
)

// Authenticate makes sure the identity provider client holds usable
// credentials: saved tokens when present and fresh enough, an interactive
// email plus OTP login otherwise. Refreshed tokens are written back to the
// config file so restarts skip the prompt.
func Authenticate(ctx context.Context, cfg *config.Config, client *pdb.Client) error {
	client.SetPersistFunc(func(t pdb.Tokens) error {
		return cfg.SetCredentials(cfg.PDB.Email, t.AccessToken, t.RefreshToken, t.ExpireAt)
	})

	if cfg.PDB.Email == "" {
		logger.InfoC("auth", "No email found in config, starting authentication")
		return interactiveLogin(ctx, cfg, client)
	}

	logger.InfoCF("auth", "Using saved email", map[string]interface{}{"email": cfg.PDB.Email})
	if cfg.PDB.AccessToken == "" || cfg.PDB.RefreshToken == "" || cfg.PDB.ExpireAt == 0 {
		return interactiveLogin(ctx, cfg, client)
	}

	client.SetTokens(pdb.Tokens{
		AccessToken:  cfg.PDB.AccessToken,
		RefreshToken: cfg.PDB.RefreshToken,
		ExpireAt:     cfg.PDB.ExpireAt,
	})

	if client.TokenExpired() {
		logger.InfoC("auth", "Saved token expired, refreshing")
		if _, err := client.Refresh(ctx); err != nil {
			logger.WarnCF("auth", "Saved credentials rejected, starting over", map[string]interface{}{
				"error": err.Error(),
			})
			if clearErr := cfg.ClearCredentials(); clearErr != nil {
				logger.ErrorCF("auth", "Failed to clear credentials", map[string]interface{}{
					"error": clearErr.Error(),
				})
			}
			return interactiveLogin(ctx, cfg, client)
		}
		logger.InfoC("auth", "Token refreshed")
	}
	return nil
}

func interactiveLogin(ctx context.Context, cfg *config.Config, client *pdb.Client) error {
	rl, err := readline.New("Please enter your email: ")
	if err != nil {
		return fmt.Errorf("open prompt: %w", err)
	}
	defer rl.Close()

	email, err := rl.Readline()
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	otp, err := client.SendDigits(ctx, email)
	if err != nil {
		return fmt.Errorf("send OTP: %w", err)
	}
	kind := "existing user"
	if otp.IsNewUser {
		kind = "new user"
	}
	logger.InfoCF("auth", "OTP sent", map[string]interface{}{"email": email, "account": kind})

	rl.SetPrompt("Please enter the OTP code: ")
	code, err := rl.Readline()
	if err != nil {
		return fmt.Errorf("read OTP code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("OTP code is required")
	}

	login, err := client.Login(ctx, email, code, "android")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	logger.InfoCF("auth", "Login successful", map[string]interface{}{"user": login.User.Username})

	if err := cfg.SetCredentials(email, login.AccessToken, login.RefreshToken, login.ExpireAt); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	// The provider expects an immediate rotation after an OTP login; the
	// refreshed pair is what stays valid.
	if _, err := client.Refresh(ctx); err != nil {
		return fmt.Errorf("post-login refresh: %w", err)
	}
	logger.InfoC("auth", "Credentials saved")
	return nil
}
