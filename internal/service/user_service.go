package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"postboard/internal/cache"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const (
	minNameLen     = 2
	minPasswordLen = 6
	minEmailLen    = 4
)

// reservedUsername collides with the /users/me route.
const reservedUsername = "me"

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

var compareHash = bcrypt.CompareHashAndPassword

// dummyHash is compared against for unknown emails so a failed login costs
// the same whether or not the account exists.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("postboard-no-such-user"), bcryptCost)
	return hash
})

type UserService struct {
	store repository.Store
}

type CreateUserInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	Role      models.Role
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// CreateUser provisions an account. Checks run in a fixed order and the
// first failure is returned: email taken, username taken, first name,
// last name, username, password and email length, then role.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "UserService", "CreateUser",
		attribute.String("user.name", in.Username))
	defer span.End(&err)
	defer recordFailure("CreateUser", &err)

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := validateNewUser(ctx, tx.Users(), &in); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return models.NewValidationError(msgPasswordLong)
			}
			return models.NewInternalError(err)
		}

		user = &models.User{
			Email:     in.Email,
			Username:  in.Username,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Password:  string(hash),
			Role:      in.Role,
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			if dup.Field == "username" {
				return nil, models.NewValidationError(msgUsernameTaken)
			}
			return nil, models.NewValidationError(msgEmailTaken)
		}
		return nil, err
	}
	cache.InvalidateOverview(ctx)
	return user, nil
}

func validateNewUser(ctx context.Context, users repository.UserRepository, in *CreateUserInput) error {
	byEmail, err := users.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if byEmail != nil {
		return models.NewValidationError(msgEmailTaken)
	}
	byUsername, err := users.GetByUsername(ctx, in.Username)
	if err != nil {
		return err
	}
	if byUsername != nil {
		return models.NewValidationError(msgUsernameTaken)
	}

	switch {
	case utf8.RuneCountInString(in.FirstName) < minNameLen:
		return models.NewValidationError(msgFirstNameRequired)
	case utf8.RuneCountInString(in.LastName) < minNameLen:
		return models.NewValidationError(msgLastNameRequired)
	case utf8.RuneCountInString(in.Username) < minNameLen:
		return models.NewValidationError(msgUsernameRequired)
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		return models.NewValidationError(msgPasswordShort)
	case utf8.RuneCountInString(in.Email) < minEmailLen:
		return models.NewValidationError(msgEmailInvalid)
	}
	if strings.EqualFold(in.Username, reservedUsername) {
		return models.NewValidationError(msgUsernameReserved)
	}

	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return models.NewValidationError(msgRoleInvalid)
	}
	return nil
}

// Authenticate returns the user owning email when password matches.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = compareHash(dummyHash(), []byte(password))
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}
	if err := compareHash([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage(msgUsernameMissing)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.store.Users().List(ctx, limit, offset)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.store.Users().ListByRole(ctx, models.RoleAdmin)
}

// SetRole changes the role of username. Used by the operator CLI to
// promote and demote accounts.
func (s *UserService) SetRole(ctx context.Context, username string, role models.Role) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "UserService", "SetRole",
		attribute.String("user.name", username),
		attribute.String("user.role", string(role)))
	defer span.End(&err)
	defer recordFailure("SetRole", &err)

	if !role.Valid() {
		return nil, models.NewValidationError(msgRoleInvalid)
	}
	user, err = s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err = s.store.Users().UpdateRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

// Overview returns table counts for the admin home, cached briefly.
func (s *UserService) Overview(ctx context.Context) (*models.Overview, error) {
	var overview models.Overview
	err := cache.Aside(ctx, cache.OverviewKey, &overview, cache.OverviewTTL, func() error {
		var err error
		if overview.Users, err = s.store.Users().Count(ctx); err != nil {
			return err
		}
		if overview.Posts, err = s.store.Posts().Count(ctx); err != nil {
			return err
		}
		if overview.Comments, err = s.store.Comments().Count(ctx); err != nil {
			return err
		}
		overview.Likes, err = s.store.Likes().Count(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &overview, nil
}
