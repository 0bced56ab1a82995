package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"sekolahku/core"
	"sekolahku/core/authz"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type Repository interface {
	CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
	CreateUser(ctx context.Context, usr User) (User, error)
	GetUser(ctx context.Context, filter GetFilter) (User, error)
	// QueryUsers applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
	QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
	UpdateUser(ctx context.Context, usr User) (User, error)
	DeleteUsersByID(ctx context.Context, ids ...string) error
	CountUsers(ctx context.Context) (int, error)
	// MonthlySignupCounts groups user creations by month ("2006-01" keys) from
	// `since` onwards. Months without signups are absent from the result.
	MonthlySignupCounts(ctx context.Context, since time.Time) (map[string]int, error)
}

type Service struct {
	repo    Repository
	mailSvc core.EmailService
}

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckEmailUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register self-registers a new USER account and sends the welcome email.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Role = authz.RoleUser
	nu.AssignedSchoolID = null.String{}
	return svc.create(ctx, nu)
}

// Create creates an account on behalf of principal; superadmin only.
func (svc *Service) Create(ctx context.Context, principal authz.Principal, nu NewUser) (User, error) {
	if err := authz.Evaluate(principal, authz.ActionUserCreate, authz.UserRef("")).Err(); err != nil {
		return User{}, err
	}
	if nu.Role == "" {
		nu.Role = authz.RoleUser
	}
	if nu.Role != authz.RoleSchoolAdmin {
		nu.AssignedSchoolID = null.String{}
	}
	return svc.create(ctx, nu)
}

func (svc *Service) create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:             nu.Name,
		Email:            nu.Email,
		Role:             nu.Role,
		AssignedSchoolID: nu.AssignedSchoolID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to Sekolahku",
		TemplateName: "welcome",
	})
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

// Update applies an administrative mutation to the account `id`.
// Role changes are a distinct action so the self-protection rule applies to
// them even when the caller may otherwise update the account.
func (svc *Service) Update(ctx context.Context, principal authz.Principal, id string, uu UpdateUser) (User, error) {
	orig, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	action := authz.ActionUserUpdate
	if uu.Role != "" && uu.Role != orig.Role {
		action = authz.ActionUserChangeRole
	}
	if err := authz.Evaluate(principal, action, authz.UserRef(id)).Err(); err != nil {
		return User{}, err
	}

	usr := orig
	usr.Name = uu.Name
	usr.Email = uu.Email
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	// an assigned school only makes sense for a school admin
	if usr.Role == authz.RoleSchoolAdmin {
		usr.AssignedSchoolID = uu.AssignedSchoolID
	} else {
		usr.AssignedSchoolID = null.String{}
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateUser(ctx, usr)
}

// UpdateProfile lets a principal rename their own account.
func (svc *Service) UpdateProfile(ctx context.Context, principal authz.Principal, up UpdateProfile) (User, error) {
	if err := authz.Evaluate(principal, authz.ActionUserUpdate, authz.UserRef(principal.ID)).Err(); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: principal.ID})
	if err != nil {
		return User{}, err
	}
	usr.Name = up.Name
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ChangePassword verifies the current password before applying the new one.
func (svc *Service) ChangePassword(ctx context.Context, principal authz.Principal, cp ChangePassword) error {
	if err := authz.Evaluate(principal, authz.ActionUserUpdate, authz.UserRef(principal.ID)).Err(); err != nil {
		return err
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: principal.ID})
	if err != nil {
		return err
	}
	if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
		return core.NewValidationError(
			errors.New("incorrect current password"),
			core.FieldError{Field: "current_password", Error: "incorrect current password"},
		)
	}
	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// Delete removes accounts; the self-protection rule keeps a principal from
// deleting themselves.
func (svc *Service) Delete(ctx context.Context, principal authz.Principal, ids ...string) error {
	for _, id := range ids {
		if err := authz.Evaluate(principal, authz.ActionUserDelete, authz.UserRef(id)).Err(); err != nil {
			return err
		}
	}
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// Authenticate checks credentials and records the login time.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrNotFound
	}
	return svc.SetLastLogin(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset emails a reset link to the account, if it exists.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password reset",
		TemplateName: "password-reset",
		TemplateData: struct{ UID, Token string }{UID: EncodeUID(usr), Token: makeToken(usr)},
	})
	return nil
}

// ResetPassword validates the emailed token and sets the new password.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	uid, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: uid})
	if err != nil {
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
