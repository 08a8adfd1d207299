package callout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/pkg/memstore"
)

func demoService(t *testing.T, rest time.Duration) *Service {
	t.Helper()
	s, err := memstore.LoadFixture("../../../fixtures/demo.yaml")
	require.NoError(t, err)
	return NewService(s, zap.NewNop(), Options{
		RestPeriod: rest,
		Now:        func() time.Time { return fixedNow },
	})
}

func TestDemoFixture_RankedList(t *testing.T) {
	svc := demoService(t, 0)
	ctx := context.Background()
	demoManager := Actor{UserID: "mgr-1", OrgID: "org-demo", Role: RoleSupervisor}

	event, err := svc.OpenCallout(ctx, demoManager, OpenRequest{ScheduledShiftID: "shift-day-0301", ClassificationID: ptr("class-dsp"), OTReasonID: ptr("reason-sick")})
	require.NoError(t, err)
	require.NotNil(t, event.TeamName)
	assert.Equal(t, "A Platoon", *event.TeamName)

	ranked, err := svc.RankedList(ctx, demoManager, event.ID)
	require.NoError(t, err)

	var order []string
	for _, c := range ranked {
		order = append(order, c.UserID)
	}
	assert.Equal(t, []string{"u-chen", "u-evans", "u-baker", "u-diaz", "u-alvarez"}, order)
	assert.Equal(t, ReasonApprovedLeave, *ranked[0].UnavailableReason)
	assert.Equal(t, ReasonPendingLeave, *ranked[1].UnavailableReason)
	assert.True(t, ranked[2].IsAvailable, "a shift ending as the callout starts does not overlap")

	next, err := svc.NextCandidate(ctx, demoManager, event.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "u-baker", next.UserID)
}

func TestDemoFixture_RestPeriodSkipsBackToBack(t *testing.T) {
	svc := demoService(t, 8*time.Hour)
	ctx := context.Background()
	demoManager := Actor{UserID: "mgr-1", OrgID: "org-demo", Role: RoleSupervisor}

	event, err := svc.OpenCallout(ctx, demoManager, OpenRequest{ScheduledShiftID: "shift-day-0301", ClassificationID: ptr("class-dsp")})
	require.NoError(t, err)

	ranked, err := svc.RankedList(ctx, demoManager, event.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 5)
	assert.Equal(t, "u-baker", ranked[2].UserID)
	assert.Equal(t, ReasonInsufficientRest, *ranked[2].UnavailableReason)

	next, err := svc.NextCandidate(ctx, demoManager, event.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "u-diaz", next.UserID)
}
