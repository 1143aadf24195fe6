package achievements_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glauncher/glauncher-api/launcher/achievements"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"github.com/glauncher/glauncher-api/model"
	"github.com/glauncher/glauncher-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2024, 11, 2, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*gorm.DB, *achievements.Service) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return db, achievements.NewService(db, nil, nil)
}

func firstBlood(t *testing.T, svc *achievements.Service) *model.Achievement {
	t.Helper()
	a, err := svc.Create(context.Background(), model.Achievement{
		Name:        "First Blood",
		Description: "Win your first match",
		Icon:        "sword.png",
	})
	require.NoError(t, err)
	return a
}

func TestCreate(t *testing.T) {
	_, svc := setup(t)
	ctx := context.Background()

	a := firstBlood(t, svc)
	assert.NotZero(t, a.ID)
	assert.Equal(t, "common", a.Rarity)

	_, err := svc.Create(ctx, model.Achievement{Name: "First Blood", Description: "dup", Icon: "x"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.Create(ctx, model.Achievement{Name: "  ", Description: "d", Icon: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	all, err := svc.Catalogue(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGrantAndList(t *testing.T) {
	db, svc := setup(t)
	ctx := context.Background()
	a := firstBlood(t, svc)
	u := testutil.CreateUser(t, db)

	ua, err := svc.Grant(ctx, u.ID, a.ID, t0)
	require.NoError(t, err)
	_, err = svc.Grant(ctx, u.ID, a.ID, t0)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.Grant(ctx, 9999, a.ID, t0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Grant(ctx, u.ID, 9999, t0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := svc.ListForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ua.ID, list[0].ID)
	assert.Equal(t, "First Blood", list[0].Name)
	assert.True(t, list[0].UnlockedAt.Equal(t0))
	assert.Zero(t, list[0].Reactions)

	empty, err := svc.ListForUser(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReact_Toggles(t *testing.T) {
	db, svc := setup(t)
	ctx := context.Background()
	a := firstBlood(t, svc)
	owner := testutil.CreateUser(t, db)
	fan1 := testutil.CreateUser(t, db)
	fan2 := testutil.CreateUser(t, db)
	ua, err := svc.Grant(ctx, owner.ID, a.ID, t0)
	require.NoError(t, err)

	r, err := svc.React(ctx, fan1.ID, ua.ID, "")
	require.NoError(t, err)
	assert.True(t, r.Reacted)
	assert.Equal(t, int64(1), r.Count)

	r, err = svc.React(ctx, fan2.ID, ua.ID, "fire")
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Count)

	r, err = svc.React(ctx, fan1.ID, ua.ID, "")
	require.NoError(t, err)
	assert.False(t, r.Reacted, "second call removes the reaction")
	assert.Equal(t, int64(1), r.Count)

	list, err := svc.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].Reactions)

	_, err = svc.React(ctx, fan1.ID, 9999, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReact_BroadcastsCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, ps := testutil.SetupTestCache(t)
	svc := achievements.NewService(db, notify.NewPublisher(ps, nil), nil)
	ctx := context.Background()
	a := firstBlood(t, svc)
	owner := testutil.CreateUser(t, db)
	fan := testutil.CreateUser(t, db)
	ua, err := svc.Grant(ctx, owner.ID, a.ID, t0)
	require.NoError(t, err)

	events, cancel, err := ps.Subscribe(ctx, notify.DashboardChannel)
	require.NoError(t, err)
	defer cancel()

	_, err = svc.React(ctx, fan.ID, ua.ID, "")
	require.NoError(t, err)

	select {
	case m := <-events:
		var ev struct {
			Type    string `json:"type"`
			Payload struct {
				UserAchievementID int64 `json:"user_achievement_id"`
				Count             int64 `json:"count"`
			} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(m.Payload), &ev))
		assert.Equal(t, notify.EventAchievementReaction, ev.Type)
		assert.Equal(t, ua.ID, ev.Payload.UserAchievementID)
		assert.Equal(t, int64(1), ev.Payload.Count)
	case <-time.After(time.Second):
		t.Fatal("no reaction event")
	}
}
