package inventory

import (
	"maps"

	"github.com/gofiber/fiber/v2"
)

var TemplateUserKey = "current_user"

// TemplateHelpers returns helpers for the django view engine.
//
// In templates:
//
//	{% if is_authenticated(current_user) %}
//	{% if is_at_least(current_user, "admin") %}
//	{{ display_name(current_user) }}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": isAuthenticated,
		"is_approved":      isApproved,
		"has_role":         hasRole,
		"is_at_least":      isAtLeast,
		"can_edit":         canEdit,
		"can_delete":       canDelete,
		"display_name":     templateDisplayName,
		"roles": map[string]string{
			"user":        string(RoleUser),
			"admin":       string(RoleAdmin),
			"super_admin": string(RoleSuperAdmin),
		},
	}
}

// TemplateHelpersWithUser adds user to the helpers under TemplateUserKey.
func TemplateHelpersWithUser(user any) map[string]any {
	helpers := TemplateHelpers()
	if user != nil {
		helpers[TemplateUserKey] = user
	}
	return helpers
}

// TemplateHelpersWithRouter picks the access state, or else the claims, from
// the request and merges data on top of the helpers.
func TemplateHelpersWithRouter(c *fiber.Ctx, claimsKey string, data fiber.Map) fiber.Map {
	var user any
	if state, ok := GetRouterAccess(c); ok {
		user = state
	} else if claims, ok := GetRouterClaims(c, claimsKey); ok {
		user = claims
	}

	out := fiber.Map(TemplateHelpersWithUser(user))
	maps.Copy(out, data)
	return out
}

func roleOf(user any) (UserRole, bool) {
	switch u := user.(type) {
	case *AccessState:
		if u == nil {
			return "", false
		}
		return u.Role, true
	case *AppUser:
		if u == nil {
			return "", false
		}
		return u.Role, true
	case AuthClaims:
		if u == nil {
			return "", false
		}
		return UserRole(u.Role()), true
	case map[string]any:
		if r, ok := u["role"].(string); ok {
			return UserRole(r), true
		}
	}
	return "", false
}

func isAuthenticated(user any) bool {
	switch u := user.(type) {
	case *AccessState:
		return u != nil && u.Email != ""
	case *AppUser:
		return u != nil
	case AuthClaims:
		return u != nil && u.UserID() != ""
	case map[string]any:
		return len(u) > 0
	default:
		return false
	}
}

func isApproved(user any) bool {
	switch u := user.(type) {
	case *AccessState:
		return u != nil && u.IsApproved
	case *AppUser:
		return u != nil && u.IsApproved
	default:
		return false
	}
}

func hasRole(user any, role string) bool {
	r, ok := roleOf(user)
	return ok && r == UserRole(role)
}

func isAtLeast(user any, minRole string) bool {
	r, ok := roleOf(user)
	return ok && r.IsAtLeast(UserRole(minRole))
}

func canEdit(user any) bool {
	r, ok := roleOf(user)
	return ok && r.CanEdit()
}

func canDelete(user any) bool {
	r, ok := roleOf(user)
	return ok && r.CanDelete()
}

func templateDisplayName(user any) string {
	switch u := user.(type) {
	case *AccessState:
		if u != nil {
			return DisplayName(u.Email)
		}
	case *AppUser:
		if u != nil {
			return DisplayName(u.Email)
		}
	case AuthClaims:
		if u != nil {
			return DisplayName(u.Email())
		}
	}
	return DisplayName("")
}
