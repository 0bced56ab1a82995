package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"sekolahku/core"
	"sekolahku/core/authz"
)

type User struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Role             authz.Role  `json:"role"`
	AssignedSchoolID null.String `json:"assigned_school_id"` // set only when Role == SCHOOL_ADMIN
	PasswordHash     []byte      `json:"-"`
	CreatedAt        time.Time   `json:"created_at"` // UTC
	UpdatedAt        time.Time   `json:"updated_at"` // UTC
	LastLogin        time.Time   `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsSuperadmin() bool  { return u.Role == authz.RoleSuperadmin }
func (u *User) IsSchoolAdmin() bool { return u.Role == authz.RoleSchoolAdmin }

// Principal resolves the authorization principal for this account.
func (u User) Principal() authz.Principal {
	p := authz.Principal{ID: u.ID, Role: u.Role}
	if u.IsSchoolAdmin() {
		p.SchoolID = u.AssignedSchoolID.String
	}
	return p
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name             string      `json:"name" validate:"required"`
	Email            string      `json:"email" validate:"required,email"`
	Password         string      `json:"password" validate:"required"`
	PasswordConfirm  string      `json:"password_confirm" validate:"required,eqfield=Password"`
	Role             authz.Role  `json:"role" validate:"omitempty,platformrole"`
	AssignedSchoolID null.String `json:"assigned_school_id"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name             string      `json:"name"`
	Email            string      `json:"email" validate:"omitempty,email"`
	Role             authz.Role  `json:"role" validate:"omitempty,platformrole"`
	AssignedSchoolID null.String `json:"assigned_school_id"`
	Password         string      `json:"password" validate:"omitempty"`
	PasswordConfirm  string      `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, svc *Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(uu.Email, origUsr)
}

// UpdateProfile is the self-service profile mutation any principal may apply
// to their own account.
type UpdateProfile struct {
	Name string `json:"name" validate:"required,min=2"`
}

func (up *UpdateProfile) Validate() error {
	up.Name = core.CleanString(up.Name)
	return core.Validate.Struct(up)
}

type ChangePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

func (cp ChangePassword) Validate() error { return core.Validate.Struct(cp) }

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search      string     `query:"search"`
	Role        authz.Role `query:"role"`
	CreatedFrom time.Time  `query:"created_from"`
	CreatedTo   time.Time  `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil ||
		(qf.Search == "" && qf.Role == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero())
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single user; exactly one field should be set.
type GetFilter struct {
	ID    string
	Email string
}

// MonthCount is one bucket of the monthly signup histogram.
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}
