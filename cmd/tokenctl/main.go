// Command tokenctl inspects access tokens against the configured key vault.
//
//	tokenctl validate <token>
//
// It prints the verified claims as JSON, or "invalid: <reason>" and exits 1.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/socialhub/socialhub/backend/go-services/internal/config"
	"github.com/socialhub/socialhub/backend/go-services/internal/keyvault"
	"github.com/socialhub/socialhub/backend/go-services/internal/tokens"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 || args[0] != "validate" {
		fmt.Fprintln(stderr, "usage: tokenctl validate <token>")
		return 2
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 2
	}
	if cfg.KeyVault.URL == "" {
		fmt.Fprintln(stderr, "KEYVAULT_URL is required")
		return 2
	}
	provider, err := keyvault.NewHTTPProvider(keyvault.HTTPConfig{
		BaseURL:     cfg.KeyVault.URL,
		KeyName:     cfg.KeyVault.KeyName,
		AccessToken: cfg.KeyVault.AccessToken,
		Timeout:     cfg.KeyVault.Timeout,
		MaxAttempts: cfg.KeyVault.MaxAttempts,
	})
	if err != nil {
		fmt.Fprintf(stderr, "key vault: %v\n", err)
		return 2
	}
	return validate(ctx, provider, cfg.JWT, args[1], stdout, stderr)
}

func validate(ctx context.Context, provider keyvault.Provider, jwtCfg config.JWTConfig, raw string, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	keys := keyvault.NewKeyCache(provider)
	if err := keys.Load(ctx); err != nil {
		fmt.Fprintf(stderr, "load key: %v\n", err)
		return 2
	}
	v := tokens.NewValidator(keys, tokens.ValidatorConfig{
		Issuer:    jwtCfg.Issuer,
		Audience:  jwtCfg.Audience,
		ClockSkew: jwtCfg.ClockSkew,
	})
	claims, err := v.Validate(ctx, raw)
	if errors.Is(err, tokens.ErrInvalidToken) {
		fmt.Fprintf(stdout, "invalid: %v\n", err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "validate: %v\n", err)
		return 2
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(claims); err != nil {
		fmt.Fprintf(stderr, "encode: %v\n", err)
		return 2
	}
	return 0
}
