package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/waldo/models"
)

func register(t *testing.T, svc *UserService, name string) models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Username:        name,
		Email:           name + "@example.com",
		Password:        "secret-" + name,
		ProfileImageURL: "https://img.example/" + name + ".png",
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, nil, []string{"root"})

	u := register(t, svc, "alice")
	assert.NotZero(t, u.ID)
	assert.Zero(t, u.Points)
	assert.False(t, u.Admin)
	assert.NotEqual(t, "secret-alice", u.PasswordHash)

	root := register(t, svc, "root")
	assert.True(t, root.Admin)
	assert.True(t, svc.IsAdmin(root))
	assert.False(t, svc.IsAdmin(u))
}

func TestRegisterCaseVariantOfAdminIsNotAdmin(t *testing.T) {
	svc := NewUserService(newMemStore(), nil, []string{"admin"})

	admin := register(t, svc, "admin")
	assert.True(t, admin.Admin)

	for _, name := range []string{"ADMIN", "Admin"} {
		u := register(t, svc, name)
		assert.False(t, u.Admin, name)
		assert.False(t, svc.IsAdmin(u), name)
	}
}

func TestRegisterRejectsNonWebProfileImage(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "mallory", Email: "m@example.com", Password: "pw", ProfileImageURL: "javascript:alert(document.cookie)",
	})
	assert.ErrorIs(t, err, ErrInvalidImageURL)
	users, _ := store.ListUsers(context.Background())
	assert.Empty(t, users)
}

func TestRegisterMissingFields(t *testing.T) {
	svc := NewUserService(newMemStore(), nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "pw"})
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "profile_image_url")
	assert.NotContains(t, err.Error(), "username")
	assert.Equal(t, 400, HTTPStatus(err))
}

func TestRegisterDuplicate(t *testing.T) {
	svc := NewUserService(newMemStore(), nil, nil)
	register(t, svc, "alice")

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "pw", ProfileImageURL: "https://img.example/a.png",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "alice2", Email: "alice@example.com", Password: "pw", ProfileImageURL: "https://img.example/a.png",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 409, HTTPStatus(err))
}

func TestLogin(t *testing.T) {
	svc := NewUserService(newMemStore(), nil, nil)
	alice := register(t, svc, "alice")

	u, err := svc.Login(context.Background(), "alice@example.com", "secret-alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Equal(t, 403, HTTPStatus(err))

	_, err = svc.Login(context.Background(), "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 404, HTTPStatus(err))

	_, err = svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestAdjustPoints(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, nil, nil)
	alice := register(t, svc, "alice")

	total, err := svc.AdjustPoints(context.Background(), alice.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, total)

	total, err = svc.AdjustPoints(context.Background(), alice.ID, -130)
	require.NoError(t, err)
	assert.Equal(t, -30, total)

	total, err = svc.AdjustPoints(context.Background(), alice.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, -30, total)

	_, err = svc.AdjustPoints(context.Background(), 999, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserAndList(t *testing.T) {
	svc := NewUserService(newMemStore(), nil, nil)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	a := register(t, svc, "alice")
	register(t, svc, "bob")

	users, err = svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	got, err := svc.GetUser(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetUser(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindsNewestFirst(t *testing.T) {
	store := newMemStore()
	users := NewUserService(store, nil, nil)
	alice := register(t, users, "alice")

	waldos := newTestWaldoService(store, testDay)
	for d := 0; d < 2; d++ {
		waldos.now = func() time.Time { return testDay.AddDate(0, 0, d).Add(time.Duration(d) * time.Hour) }
		code := selectFor(t, waldos)
		_, err := waldos.Claim(context.Background(), alice.ID, code)
		require.NoError(t, err)
	}

	finds, err := users.Finds(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, finds, 2)
	assert.Equal(t, "2026-10-17", finds[0].Date)
	assert.Equal(t, 1150, finds[0].PointsEarned)
	assert.Equal(t, "2026-10-16", finds[1].Date)
	assert.Equal(t, "alice", finds[0].User)

	_, err = users.Finds(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Points are only ever changed by claims and adjustments, so the totals must add up.
func TestPointsConservation(t *testing.T) {
	store := newMemStore()
	users := NewUserService(store, nil, nil)
	ids := []uint{}
	for _, name := range []string{"alice", "bob", "carol"} {
		ids = append(ids, register(t, users, name).ID)
	}

	waldos := newTestWaldoService(store, testDay)
	expected := map[uint]int{}
	for d := 0; d < 3; d++ {
		at := testDay.AddDate(0, 0, d).Add(time.Duration(5*d) * time.Hour)
		waldos.now = func() time.Time { return at }
		code := selectFor(t, waldos)
		for i, id := range ids[:d+1] {
			res, err := waldos.Claim(context.Background(), id, code)
			require.NoError(t, err)
			expected[id] += res.PointsAwarded
			if i == 0 {
				_, err := users.AdjustPoints(context.Background(), id, -7)
				require.NoError(t, err)
				expected[id] -= 7
			}
		}
	}

	for _, id := range ids {
		u, err := users.GetUser(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, expected[id], u.Points, "user %d", id)
	}
}
