package config

import (
	"fmt"

	"github.com/JaimeStill/arcsolve/pkg/formatting"
	"github.com/JaimeStill/arcsolve/pkg/middleware"
	"github.com/JaimeStill/arcsolve/pkg/openapi"
	"github.com/JaimeStill/arcsolve/pkg/pagination"
)

// APIEnv maps API fields and nested configs to environment variable names.
type APIEnv struct {
	BasePath    string
	MaxBodySize string
	Auth        *middleware.AuthEnv
	Pagination  *pagination.ConfigEnv
	OpenAPI     *openapi.ConfigEnv
}

var apiEnv = &APIEnv{
	BasePath:    "ARCSOLVE_API_BASE_PATH",
	MaxBodySize: "ARCSOLVE_API_MAX_BODY_SIZE",
	Auth: &middleware.AuthEnv{
		Issuer:   "ARCSOLVE_AUTH_ISSUER",
		ClientID: "ARCSOLVE_AUTH_CLIENT_ID",
	},
	Pagination: &pagination.ConfigEnv{
		DefaultPageSize: "ARCSOLVE_PAGINATION_DEFAULT_PAGE_SIZE",
		MaxPageSize:     "ARCSOLVE_PAGINATION_MAX_PAGE_SIZE",
	},
	OpenAPI: &openapi.ConfigEnv{
		Title:       "ARCSOLVE_OPENAPI_TITLE",
		Description: "ARCSOLVE_OPENAPI_DESCRIPTION",
	},
}

// APIConfig holds API routing, request limits, auth, pagination, and the
// generated document's metadata.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	Auth        middleware.AuthConfig `toml:"auth"`
	Pagination  pagination.Config     `toml:"pagination"`
	OpenAPI     openapi.Config        `toml:"openapi"`
}

// MaxBodyBytes returns MaxBodySize in bytes. Finalize has already validated it.
func (c *APIConfig) MaxBodyBytes() int64 {
	n, _ := formatting.ParseSize(c.MaxBodySize)
	return n
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize(env *APIEnv) error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}

	var (
		authEnv *middleware.AuthEnv
		pageEnv *pagination.ConfigEnv
		docEnv  *openapi.ConfigEnv
	)
	if env != nil {
		setString(env.BasePath, &c.BasePath)
		setString(env.MaxBodySize, &c.MaxBodySize)
		authEnv, pageEnv, docEnv = env.Auth, env.Pagination, env.OpenAPI
	}

	if n, err := formatting.ParseSize(c.MaxBodySize); err != nil || n <= 0 {
		return fmt.Errorf("invalid max_body_size %q", c.MaxBodySize)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Pagination.Finalize(pageEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(docEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}
	c.Auth.Merge(&overlay.Auth)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}
