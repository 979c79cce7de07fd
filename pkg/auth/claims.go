package auth

import (
	"context"
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Role constants
const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
	RoleReviewer = "reviewer"
	RoleService  = "service"
)

// Claims represents the JWT claims issued to dashboard users and internal services.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string   `json:"user_id"`
	BusinessID string   `json:"business_id,omitempty"`
	Roles      []string `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// CanAccessBusiness reports whether the caller may act on businessID.
// Admins and internal services are not scoped to a business.
func (c Claims) CanAccessBusiness(businessID string) bool {
	if c.HasRole(RoleAdmin) || c.HasRole(RoleService) {
		return true
	}
	return c.BusinessID != "" && c.BusinessID == businessID
}

// ErrForbidden is returned when authenticated claims do not cover a business.
var ErrForbidden = errors.New("auth: access to business denied")

// AuthorizeBusiness checks the claims in ctx against businessID. A context
// without claims (authentication disabled) is allowed through.
func AuthorizeBusiness(ctx context.Context, businessID string) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil
	}
	if !claims.CanAccessBusiness(businessID) {
		return ErrForbidden
	}
	return nil
}

type contextKey string

const claimsContextKey contextKey = "claims"

// ContextWithClaims returns a new context with the given Claims attached.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts Claims from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}
