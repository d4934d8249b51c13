package tenant

import (
	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/model"
)

// Actor is the authenticated principal a request runs as, as carried by its
// access token.
type Actor struct {
	UserID    string
	Role      string
	PartnerID *string
}

// IsMaster reports whether the actor has platform-wide visibility.
func (a Actor) IsMaster() bool {
	return a.Role == model.RoleMaster
}

// Resolve returns the effective partner scope for an operation, or rejects
// cross-tenant access. It runs on the hot path of every tenant-scoped
// operation and has no side effects.
//
// MASTER actors get exactly the tenant they asked for, including none at all;
// callers that need a concrete tenant must handle the nil case themselves.
// PARTNER actors are always scoped to their bound partner and may not request
// any other.
func Resolve(actor Actor, requestedPartnerID *string) (*string, error) {
	if actor.IsMaster() {
		return requestedPartnerID, nil
	}

	if actor.PartnerID == nil || *actor.PartnerID == "" {
		// A PARTNER without a bound partner is corrupt account data, not a
		// client mistake.
		return nil, apperror.Forbidden("Usuario PARTNER sem partner_id vinculado")
	}

	if requestedPartnerID != nil && *requestedPartnerID != "" && *requestedPartnerID != *actor.PartnerID {
		return nil, apperror.Forbidden("PARTNER nao pode acessar dados de outro partner")
	}

	return actor.PartnerID, nil
}

// RequireMaster is the single elevated-role guard. Lead status changes and
// partner/user management are MASTER-only.
func RequireMaster(actor Actor) error {
	if !actor.IsMaster() {
		return apperror.Forbidden("Apenas MASTER pode executar esta operacao")
	}
	return nil
}
