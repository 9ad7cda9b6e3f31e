package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"postboard/internal/cache"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validUserInput() CreateUserInput {
	return CreateUserInput{
		Email:     "new@example.com",
		Username:  "newbie",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "secret1",
	}
}

func TestUserService_CreateUser_ValidationOrder(t *testing.T) {
	store, _ := newStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserInput{
		Email: "taken@example.com", Username: "taken",
		FirstName: "Ta", LastName: "Ken", Password: "password",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*CreateUserInput)
		wantMsg string
	}{
		{"duplicate email", func(in *CreateUserInput) { in.Email = "taken@example.com" }, msgEmailTaken},
		{"duplicate username", func(in *CreateUserInput) { in.Username = "taken" }, msgUsernameTaken},
		{"email checked before username", func(in *CreateUserInput) {
			in.Email = "taken@example.com"
			in.Username = "taken"
		}, msgEmailTaken},
		{"uniqueness checked before lengths", func(in *CreateUserInput) {
			in.Email = "taken@example.com"
			in.FirstName = "A"
		}, msgEmailTaken},
		{"short first name", func(in *CreateUserInput) { in.FirstName = "A" }, msgFirstNameRequired},
		{"first name before last name", func(in *CreateUserInput) {
			in.FirstName = ""
			in.LastName = ""
		}, msgFirstNameRequired},
		{"short last name", func(in *CreateUserInput) { in.LastName = "B" }, msgLastNameRequired},
		{"short username", func(in *CreateUserInput) { in.Username = "c" }, msgUsernameRequired},
		{"five character password", func(in *CreateUserInput) { in.Password = "12345" }, msgPasswordShort},
		{"short email", func(in *CreateUserInput) { in.Email = "a@b" }, msgEmailInvalid},
		{"password before email", func(in *CreateUserInput) {
			in.Password = "x"
			in.Email = "x"
		}, msgPasswordShort},
		{"reserved username", func(in *CreateUserInput) { in.Username = "me" }, msgUsernameReserved},
		{"reserved username ignores case", func(in *CreateUserInput) { in.Username = "ME" }, msgUsernameReserved},
		{"lengths before reserved username", func(in *CreateUserInput) {
			in.Username = "me"
			in.Password = "x"
		}, msgPasswordShort},
		{"unknown role", func(in *CreateUserInput) { in.Role = "root" }, msgRoleInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validUserInput()
			tt.mutate(&in)
			_, err := svc.CreateUser(ctx, in)
			assertMessage(t, err, models.CodeValidation, tt.wantMsg)
		})
	}

	n, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserService_CreateUser_Success(t *testing.T) {
	store, _ := newStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	in := validUserInput()
	in.Password = "123456"
	user, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "123456", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("123456")))

	admin := validUserInput()
	admin.Email = "admin@example.com"
	admin.Username = "admin"
	admin.Role = models.RoleAdmin
	created, err := svc.CreateUser(ctx, admin)
	require.NoError(t, err)
	assert.True(t, created.IsAdmin())
}

func TestUserService_CreateUser_CountsRunes(t *testing.T) {
	store, _ := newStore(t)
	svc := NewUserService(store)

	in := validUserInput()
	in.FirstName = "Łu"
	in.Password = "пароль"
	_, err := svc.CreateUser(context.Background(), in)
	require.NoError(t, err)
}

func TestUserService_CreateUser_ConcurrentDuplicates(t *testing.T) {
	store, _ := newStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		messages  []string
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateUser(ctx, validUserInput())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var appErr *models.AppError
			if errors.As(err, &appErr) {
				messages = append(messages, appErr.Message)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, messages, attempts-1)
	for _, m := range messages {
		assert.Equal(t, msgEmailTaken, m)
	}
}

func TestUserService_CreateUser_MapsInsertRace(t *testing.T) {
	tests := []struct {
		field   string
		wantMsg string
	}{
		{"email", msgEmailTaken},
		{"username", msgUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			users := noopUserRepo()
			users.createFn = func(_ context.Context, _ *models.User) error {
				return &repository.DuplicateError{Field: tt.field, Err: errors.New("UNIQUE constraint failed")}
			}
			svc := NewUserService(&storeStub{users: users})

			_, err := svc.CreateUser(context.Background(), validUserInput())
			assertMessage(t, err, models.CodeValidation, tt.wantMsg)
		})
	}
}

func TestUserService_CreateUser_LookupFailure(t *testing.T) {
	users := noopUserRepo()
	users.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) {
		return nil, models.NewInternalError(errors.New("db down"))
	}
	svc := NewUserService(&storeStub{users: users})

	_, err := svc.CreateUser(context.Background(), validUserInput())
	assertCode(t, err, models.CodeInternal)
}

func TestUserService_Authenticate(t *testing.T) {
	store, db := newStore(t)
	svc := NewUserService(store)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "login", models.RoleUser)

	got, err := svc.Authenticate(ctx, u.Email, "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, u.Email, "wrong")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "ghost@example.com", "password123")
	assertCode(t, err, models.CodeUnauthorized)
}

func TestUserService_Authenticate_UnknownEmailComparesHash(t *testing.T) {
	store, _ := newStore(t)
	svc := NewUserService(store)

	var compared [][]byte
	orig := compareHash
	compareHash = func(hash, password []byte) error {
		compared = append(compared, hash)
		return orig(hash, password)
	}
	t.Cleanup(func() { compareHash = orig })

	_, err := svc.Authenticate(context.Background(), "ghost@example.com", "password123")
	assertMessage(t, err, models.CodeUnauthorized, msgInvalidCredentials)

	require.Len(t, compared, 1)
	assert.Equal(t, dummyHash(), compared[0])
	cost, err := bcrypt.Cost(compared[0])
	require.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)
}

func TestUserService_SetRole_EvictsCachedUser(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })

	store, db := newStore(t)
	svc := NewUserService(store)
	ctx := context.Background()
	boss := testutil.CreateUser(t, db, "boss", models.RoleAdmin)

	cached, err := svc.GetUser(ctx, boss.ID)
	require.NoError(t, err)
	require.True(t, cached.IsAdmin())
	require.True(t, mr.Exists(cache.UserKey(boss.ID)))

	_, err = svc.SetRole(ctx, "boss", models.RoleUser)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.UserKey(boss.ID)))

	got, err := svc.GetUser(ctx, boss.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAdmin())
}

func TestUserService_SetRole(t *testing.T) {
	store, db := newStore(t)
	svc := NewUserService(store)
	ctx := context.Background()
	testutil.CreateUser(t, db, "promotee", models.RoleUser)

	user, err := svc.SetRole(ctx, "promotee", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "promotee", admins[0].Username)

	_, err = svc.SetRole(ctx, "promotee", "superuser")
	assertMessage(t, err, models.CodeValidation, msgRoleInvalid)

	_, err = svc.SetRole(ctx, "ghost", models.RoleUser)
	assertMessage(t, err, models.CodeNotFound, msgUsernameMissing)
}

func TestUserService_Overview(t *testing.T) {
	store, db := newStore(t)
	svc := NewUserService(store)
	u := testutil.CreateUser(t, db, "counted", models.RoleUser)
	p := testutil.CreatePost(t, db, u.ID, "p")
	testutil.CreateComment(t, db, u.ID, p.ID, "c")
	_, err := NewLikeService(store).ToggleLike(context.Background(), u.ID, p.ID)
	require.NoError(t, err)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Overview{Users: 1, Posts: 1, Comments: 1, Likes: 1}, *overview)
}
