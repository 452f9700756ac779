package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/internal/domain/mocks"
	"github.com/encanta/encanta/pkg/logger"
)

func TestMembershipAuthority_CheckAccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	t.Run("empty ids are denied without a lookup", func(t *testing.T) {
		repo := mocks.NewMockMembershipRepository(ctrl)
		authority := NewMembershipAuthority(repo, logger.NewMockLogger(t))

		assert.False(t, authority.CheckAccess(ctx, "", "ws-1"))
		assert.False(t, authority.CheckAccess(ctx, "user-1", ""))
	})

	t.Run("no membership row is denied", func(t *testing.T) {
		repo := mocks.NewMockMembershipRepository(ctrl)
		repo.EXPECT().GetMembership(gomock.Any(), "user-1", "ws-1").
			Return(nil, &domain.ErrNotFound{Entity: "team member", ID: "ws-1/user-1"})
		authority := NewMembershipAuthority(repo, logger.NewMockLogger(t))

		assert.False(t, authority.CheckAccess(ctx, "user-1", "ws-1"))
	})

	t.Run("store failure is denied and logged", func(t *testing.T) {
		repo := mocks.NewMockMembershipRepository(ctrl)
		repo.EXPECT().GetMembership(gomock.Any(), "user-1", "ws-1").
			Return(nil, errors.New("connection reset"))

		mockLogger := mocks.NewMockLogger(ctrl)
		mockLogger.EXPECT().WithFields(gomock.Any()).Return(mockLogger)
		mockLogger.EXPECT().Error(gomock.Any())

		authority := NewMembershipAuthority(repo, mockLogger)
		decision := authority.Decide(ctx, "user-1", "ws-1", domain.RoleViewer)

		assert.False(t, decision.Allowed)
		assert.Nil(t, decision.Member)
	})
}

func TestMembershipAuthority_RoleGating(t *testing.T) {
	ctx := context.Background()
	sets := map[string][]domain.Role{
		"any member":   nil,
		"owner":        {domain.RoleOwner},
		"owner, admin": {domain.RoleOwner, domain.RoleAdmin},
		"editor+":      domain.RolesAtLeast(domain.RoleEditor),
		"viewer only":  {domain.RoleViewer},
	}

	for _, role := range domain.AllRoles {
		for name, required := range sets {
			role, required := role, required
			t.Run(string(role)+" against "+name, func(t *testing.T) {
				members := newMemMemberships()
				members.grant("ws-1", "user-1", role)
				authority := NewMembershipAuthority(members, logger.NewMockLogger(t))

				want := len(required) == 0 || domain.HasRole(required, role)
				assert.Equal(t, want, authority.CheckAccess(ctx, "user-1", "ws-1", required...))
			})
		}
	}
}

func TestMembershipAuthority_OwnerAdminScenario(t *testing.T) {
	ctx := context.Background()
	members := newMemMemberships()
	authority := NewMembershipAuthority(members, logger.NewMockLogger(t))

	members.grant("ws-1", "u1", domain.RoleOwner)
	assert.True(t, authority.CheckAccess(ctx, "u1", "ws-1", domain.RoleOwner, domain.RoleAdmin))

	members.grant("ws-1", "u1", domain.RoleViewer)
	assert.False(t, authority.CheckAccess(ctx, "u1", "ws-1", domain.RoleOwner, domain.RoleAdmin))
}

func TestMembershipAuthority_ConsultsStoreEveryCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockMembershipRepository(ctrl)
	gomock.InOrder(
		repo.EXPECT().GetMembership(gomock.Any(), "user-1", "ws-1").
			Return(&domain.TeamMember{UserID: "user-1", WorkspaceID: "ws-1", Role: domain.RoleAdmin}, nil),
		repo.EXPECT().GetMembership(gomock.Any(), "user-1", "ws-1").
			Return(nil, &domain.ErrNotFound{Entity: "team member"}),
	)
	authority := NewMembershipAuthority(repo, logger.NewMockLogger(t))

	assert.True(t, authority.CheckAccess(context.Background(), "user-1", "ws-1", domain.RoleAdmin))
	assert.False(t, authority.CheckAccess(context.Background(), "user-1", "ws-1", domain.RoleAdmin))
}

func TestMembershipAuthority_Authorize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	repo := mocks.NewMockMembershipRepository(ctrl)
	authority := NewMembershipAuthority(repo, logger.NewMockLogger(t))

	t.Run("non-member", func(t *testing.T) {
		repo.EXPECT().GetMembership(gomock.Any(), "user-1", "ws-1").
			Return(nil, &domain.ErrNotFound{Entity: "team member", ID: "ws-1/user-1"})

		err := authority.Authorize(ctx, "user-1", "ws-1")
		if assert.NotNil(t, err) {
			assert.Equal(t, "ws-1", err.WorkspaceID)
			assert.Equal(t, "You don't have access to this workspace", err.Error())
		}
	})

	t.Run("insufficient role", func(t *testing.T) {
		repo.EXPECT().GetMembership(gomock.Any(), "user-1", "ws-1").
			Return(&domain.TeamMember{UserID: "user-1", WorkspaceID: "ws-1", Role: domain.RoleViewer}, nil)

		err := authority.Authorize(ctx, "user-1", "ws-1", domain.RolesAtLeast(domain.RoleAdmin)...)
		if assert.NotNil(t, err) {
			assert.Equal(t, "You don't have permission to perform this action", err.Message)
		}
	})

	t.Run("allowed", func(t *testing.T) {
		repo.EXPECT().GetMembership(gomock.Any(), "user-1", "ws-1").
			Return(&domain.TeamMember{UserID: "user-1", WorkspaceID: "ws-1", Role: domain.RoleOwner}, nil)

		assert.Nil(t, authority.Authorize(ctx, "user-1", "ws-1", domain.RoleOwner))
	})
}
