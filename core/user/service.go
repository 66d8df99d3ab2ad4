package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrAuthenticationFailed = errors.New("invalid employee ID or password")
	ErrAccountDeactivated   = errors.New("account deactivated")

	welcomeTmpl    = "welcome"
	welcomeSubject = "Welcome! Your employee ID is %s"
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		// CreateUser assigns the next employee ID ("E100", "E101", ...) to usr.
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.ID, User.FullName or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		CheckUniqueness(email string, exclUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, employeeID, pwd string) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		Members(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetPassword(ctx context.Context, id, pwd string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
		now     func() time.Time

		syncMail bool
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
		now:     time.Now,
	}
}

func (svc *service) CheckUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register creates an active member account and sends them a welcome email.
// nu must have been validated.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := svc.now().UTC()
	usr := User{
		FullName:   nu.FullName,
		Email:      nu.Email,
		Phone:      nu.Phone,
		Role:       nu.Role,
		Department: nu.Department,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	if svc.logger != nil {
		svc.logger.Info(fmt.Sprintf("user %s registered as %s", usr.ID, usr.Role))
	}

	if svc.syncMail {
		svc.sendWelcomeMail(usr)
	} else {
		go svc.sendWelcomeMail(usr)
	}
	return usr, nil
}

func (svc *service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	to := mail.Address{Name: usr.FullName, Address: usr.Email}
	msg := core.NewEmailMessage(svc.conf, welcomeTmpl, fmt.Sprintf(welcomeSubject, usr.ID), usr, to)
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) Authenticate(ctx context.Context, employeeID, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: NormalizeEmployeeID(employeeID)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrAuthenticationFailed
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	now := svc.now().UTC()
	usr.LastLogin = &now
	usr.UpdatedAt = now
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting lastLogin")
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

// Members returns the active non-mentor users.
func (svc *service) Members(ctx context.Context) ([]User, error) {
	active := true
	filter := &QueryFilter{Roles: MemberRoles, IsActive: &active}
	return svc.repo.QueryUsers(ctx, filter, []core.DBOrdering{{Field: "full_name", Ascending: true}})
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: NormalizeEmployeeID(id)})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// SetPassword sets a new password without applying the password policy (admin use).
func (svc *service) SetPassword(ctx context.Context, id, pwd string) error {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = svc.now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// NormalizeEmployeeID upper-cases and trims an employee ID ("e100 " -> "E100").
func NormalizeEmployeeID(id string) string {
	return strings.ToUpper(core.CleanString(id))
}
