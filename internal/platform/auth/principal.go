package auth

import (
	"context"

	"github.com/google/uuid"
)

const (
	RoleAdmin    = "admin"
	RolePHCStaff = "phc_staff"
)

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID        string
	Roles         []string
	FacilityID    *uuid.UUID
	CrossFacility bool
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// CanEditAcrossFacilities reports whether the caller may update records that
// belong to a facility other than their own.
func (p Principal) CanEditAcrossFacilities() bool {
	return p.IsAdmin() || p.CrossFacility
}

// FacilityScope returns the facility the caller's queries are pinned to, or
// nil when the caller may see every facility.
func (p Principal) FacilityScope() *uuid.UUID {
	if p.IsAdmin() {
		return nil
	}
	if p.FacilityID == nil {
		// Staff without a facility claim see nothing rather than everything.
		none := uuid.Nil
		return &none
	}
	return p.FacilityID
}

// OwnsFacility reports whether facilityID is the caller's home facility.
func (p Principal) OwnsFacility(facilityID uuid.UUID) bool {
	return p.FacilityID != nil && *p.FacilityID == facilityID
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, p.UserID)
	ctx = context.WithValue(ctx, UserRolesKey, p.Roles)
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller, or a zero Principal (no roles, no
// facility) when the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey).(Principal)
	return p
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}
