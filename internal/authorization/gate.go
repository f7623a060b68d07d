package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/ventrahq/ventra/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission_denied")
)

// Gate answers authorization questions for a caller against an
// organization, backed by the membership store.
type Gate struct {
	log  *zap.Logger
	orgs orgdomain.Repository
}

type GateParam struct {
	fx.In

	Log  *zap.Logger
	Orgs orgdomain.Repository
}

func NewGate(p GateParam) *Gate {
	return &Gate{
		log:  p.Log.Named("authorization.gate"),
		orgs: p.Orgs,
	}
}

// ResolveRole returns the caller's role in the organization. Pending and
// deactivated memberships resolve like missing ones.
func (g *Gate) ResolveRole(ctx context.Context, orgID, userID snowflake.ID) (Role, orgdomain.MemberStatus, error) {
	if userID == 0 {
		return "", "", ErrUnauthorized
	}

	member, err := g.orgs.FindMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, orgdomain.ErrMemberNotFound) {
			return "", "", ErrPermissionDenied
		}
		return "", "", err
	}

	role, err := ParseRole(member.Role)
	if err != nil {
		g.log.Warn("membership carries unknown role",
			zap.String("org_id", orgID.String()),
			zap.String("user_id", userID.String()),
			zap.String("role", member.Role),
		)
		return "", "", ErrPermissionDenied
	}

	return role, member.Status, nil
}

// RequireBilling enforces the billing mutation rule: role must be owner or
// admin and the membership must be active.
func (g *Gate) RequireBilling(ctx context.Context, orgID, userID snowflake.ID) error {
	role, status, err := g.ResolveRole(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !role.CanManageBilling() || status != orgdomain.MemberStatusActive {
		return ErrPermissionDenied
	}
	return nil
}

// RequireMember enforces that the caller belongs to the organization with
// an active membership, any role.
func (g *Gate) RequireMember(ctx context.Context, orgID, userID snowflake.ID) error {
	_, status, err := g.ResolveRole(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if status != orgdomain.MemberStatusActive {
		return ErrPermissionDenied
	}
	return nil
}

var Module = fx.Module("authorization",
	fx.Provide(NewGate),
)
