package portal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adz4needz/portal/core/user"
)

type fakeStore struct {
	usr   *user.User
	err   error
	block chan struct{} // CurrentUser waits on it when set

	checks  int32
	logouts int32
}

func (st *fakeStore) CurrentUser(ctx context.Context) (user.User, bool, error) {
	atomic.AddInt32(&st.checks, 1)
	if st.block != nil {
		select {
		case <-st.block:
		case <-ctx.Done():
			return user.User{}, false, ctx.Err()
		}
	}
	if st.err != nil {
		return user.User{}, false, st.err
	}
	if st.usr == nil {
		return user.User{}, false, nil
	}
	return *st.usr, true, nil
}

func (st *fakeStore) Logout(context.Context) error {
	atomic.AddInt32(&st.logouts, 1)
	st.usr = nil
	return nil
}

var (
	asha = user.User{
		ID:         "E100",
		FullName:   "Asha Rao",
		Email:      "asha@adz4needz.com",
		Phone:      "9876543210",
		Role:       user.RoleIntern,
		Department: user.DeptWebDeveloper,
		IsActive:   true,
	}
	mentor = user.User{
		ID:         "E200",
		FullName:   "Vikram Iyer",
		Email:      "vikram@adz4needz.com",
		Role:       user.RoleMentor,
		Department: user.DeptNone,
		IsActive:   true,
	}
)

func TestShellStartsLoading(t *testing.T) {
	sh := New(&fakeStore{})
	assert.Equal(t, Loading, sh.State())
	v := sh.View()
	assert.Equal(t, ScreenLoading, v.Screen)
	assert.Nil(t, v.Sidebar)
}

func TestMountWithUser(t *testing.T) {
	u := asha
	store := &fakeStore{usr: &u}
	sh := New(store)

	require.Equal(t, Authenticated, sh.Mount(context.Background()))
	got, ok := sh.User()
	require.True(t, ok)
	assert.Equal(t, asha, got)

	v := sh.View()
	assert.Equal(t, ScreenStudent, v.Screen)
	assert.NotEqual(t, ScreenAuth, v.Screen)
	require.NotNil(t, v.Sidebar)
	assert.Equal(t, "A", v.Sidebar.Initial)
	assert.Equal(t, "INTERN", v.Sidebar.RoleLabel)
	assert.Equal(t, "Asha Rao", v.Sidebar.Name)
	assert.Equal(t, "E100", v.Sidebar.ID)
	assert.Equal(t, "blue", v.Sidebar.Accent)
	require.NotNil(t, v.User)
	assert.Equal(t, asha, *v.User, "the student subtree gets the exact user record")
}

func TestMountChecksOnce(t *testing.T) {
	store := &fakeStore{}
	sh := New(store)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sh.Mount(context.Background())
		}()
	}
	wg.Wait()
	sh.Mount(context.Background())

	assert.EqualValues(t, 1, atomic.LoadInt32(&store.checks))
	assert.Equal(t, Unauthenticated, sh.State())
}

func TestMountWithoutUserThenRegistration(t *testing.T) {
	store := &fakeStore{}
	sh := New(store)

	require.Equal(t, Unauthenticated, sh.Mount(context.Background()))
	v := sh.View()
	assert.Equal(t, ScreenAuth, v.Screen)
	assert.Nil(t, v.User)
	assert.Nil(t, v.Sidebar)

	require.NoError(t, sh.Login(mentor))
	v = sh.View()
	assert.Equal(t, Authenticated, v.State)
	assert.Equal(t, ScreenMentor, v.Screen)
	assert.Equal(t, MentorSubtree, v.Subtree)
	assert.Equal(t, "purple", v.Sidebar.Accent)
	assert.Equal(t, "V", v.Sidebar.Initial)
}

func TestMountStoreError(t *testing.T) {
	sh := New(&fakeStore{err: errors.New("db down")})
	assert.Equal(t, CheckFailed, sh.Mount(context.Background()))
	assert.EqualError(t, sh.Err(), "db down")

	v := sh.View()
	assert.Equal(t, ScreenError, v.Screen)
	assert.NotEmpty(t, v.Error)

	// retrying means logging in from the auth collaborator
	require.NoError(t, sh.Login(asha))
	assert.Equal(t, Authenticated, sh.State())
	assert.NoError(t, sh.Err())
}

func TestMountTimeout(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	defer close(store.block)

	sh := New(store, WithCheckTimeout(20*time.Millisecond))
	start := time.Now()
	assert.Equal(t, CheckFailed, sh.Mount(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, ErrCheckTimeout, sh.Err())
}

func TestMountCancelled(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	defer close(store.block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sh := New(store)
	assert.Equal(t, CheckFailed, sh.Mount(ctx))
	assert.Equal(t, context.Canceled, sh.Err())
}

func TestLoginInvalidTransitions(t *testing.T) {
	u := asha
	sh := New(&fakeStore{usr: &u})
	assert.ErrorIs(t, sh.Login(mentor), ErrInvalidTransition, "still loading")

	sh.Mount(context.Background())
	assert.ErrorIs(t, sh.Login(mentor), ErrInvalidTransition, "already authenticated")
	got, _ := sh.User()
	assert.Equal(t, asha, got)
}

func TestSignOutIsIdempotent(t *testing.T) {
	u := asha
	store := &fakeStore{usr: &u}
	sh := New(store)
	sh.Mount(context.Background())
	assert.True(t, sh.ToggleMenu())

	require.NoError(t, sh.SignOut(context.Background()))
	once := sh.View()
	require.NoError(t, sh.SignOut(context.Background()))
	twice := sh.View()

	assert.Equal(t, once, twice)
	assert.Equal(t, Unauthenticated, twice.State)
	assert.Equal(t, ScreenAuth, twice.Screen)
	assert.False(t, twice.MenuOpen)
	_, ok := sh.User()
	assert.False(t, ok)
	assert.EqualValues(t, 2, atomic.LoadInt32(&store.logouts))
}

func TestMenu(t *testing.T) {
	sh := New(&fakeStore{})
	sh.Mount(context.Background())
	assert.False(t, sh.ToggleMenu(), "menu only opens while authenticated")

	require.NoError(t, sh.Login(asha))
	assert.True(t, sh.ToggleMenu())
	assert.True(t, sh.View().MenuOpen)
	assert.False(t, sh.ToggleMenu())

	sh.ToggleMenu()
	sh.CloseMenu()
	assert.False(t, sh.View().MenuOpen)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		role   user.Role
		want   Subtree
		wantOk bool
	}{
		{user.RoleMentor, MentorSubtree, true},
		{user.RoleTelecaller, StudentSubtree, true},
		{user.RoleIntern, StudentSubtree, true},
		{user.RoleEmployee, StudentSubtree, true},
		{user.Role("ADMIN"), NoSubtree, false},
		{user.Role(""), NoSubtree, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got, ok := Route(tt.role)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOk, ok)
		})
	}
}

func TestRoleRoutingRendersExactlyOneSubtree(t *testing.T) {
	for _, role := range user.AllRoles {
		u := asha
		u.Role = role
		sh := New(&fakeStore{usr: &u})
		sh.Mount(context.Background())

		v := sh.View()
		if role == user.RoleMentor {
			assert.Equal(t, ScreenMentor, v.Screen, role)
			assert.Equal(t, MentorSubtree, v.Subtree, role)
		} else {
			assert.Equal(t, ScreenStudent, v.Screen, role)
			assert.Equal(t, StudentSubtree, v.Subtree, role)
			assert.Equal(t, u, *v.User, role)
		}
	}
}

func TestUnknownRoleRendersError(t *testing.T) {
	u := asha
	u.Role = "ADMIN"
	sh := New(&fakeStore{usr: &u})
	sh.Mount(context.Background())
	v := sh.View()
	assert.Equal(t, ScreenError, v.Screen)
	assert.Nil(t, v.User)
}
