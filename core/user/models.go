package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/adz4needz/portal/core"
)

// Role is a closed enumeration; values outside the set are rejected by validation.
type Role string

const (
	RoleMentor     Role = "MENTOR"
	RoleTelecaller Role = "TELECALLER"
	RoleIntern     Role = "INTERN"
	RoleEmployee   Role = "EMPLOYEE"
)

// AllRoles lists every role. MemberRoles are the roles that consume tasks and produce submissions & attendance.
var (
	AllRoles    = []Role{RoleMentor, RoleTelecaller, RoleIntern, RoleEmployee}
	MemberRoles = []Role{RoleTelecaller, RoleIntern, RoleEmployee}
)

func (r Role) Valid() bool {
	switch r {
	case RoleMentor, RoleTelecaller, RoleIntern, RoleEmployee:
		return true
	}
	return false
}

// IsMember reports whether r is one of the student-equivalent roles.
func (r Role) IsMember() bool {
	switch r {
	case RoleTelecaller, RoleIntern, RoleEmployee:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Department scopes task and class session visibility.
type Department string

const (
	DeptHR               Department = "HR"
	DeptDataAnalyst      Department = "DATA_ANALYST"
	DeptDigitalMarketing Department = "DIGITAL_MARKETING"
	DeptWebDeveloper     Department = "WEB_DEVELOPER"
	DeptTelecaller       Department = "TELECALLER"
	DeptNone             Department = "NONE" // generic employee
)

var AllDepartments = []Department{DeptHR, DeptDataAnalyst, DeptDigitalMarketing, DeptWebDeveloper, DeptTelecaller, DeptNone}

func (d Department) Valid() bool {
	switch d {
	case DeptHR, DeptDataAnalyst, DeptDigitalMarketing, DeptWebDeveloper, DeptTelecaller, DeptNone:
		return true
	}
	return false
}

func (d Department) String() string { return string(d) }

// Option is a value/label pair offered by the registration form.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var (
	DepartmentOptions = []Option{
		{Value: string(DeptHR), Label: "Human Resources"},
		{Value: string(DeptDataAnalyst), Label: "Data Analyst"},
		{Value: string(DeptDigitalMarketing), Label: "Digital Marketing"},
		{Value: string(DeptWebDeveloper), Label: "Web Developer"},
		{Value: string(DeptTelecaller), Label: "Telecaller"},
	}
	RoleOptions = []Option{
		{Value: string(RoleIntern), Label: "Internship Student"},
		{Value: string(RoleEmployee), Label: "Full-time Employee"},
		{Value: string(RoleTelecaller), Label: "Telecaller"},
	}
)

type User struct {
	ID           string     `json:"id" db:"id"` // employee ID
	FullName     string     `json:"fullName" db:"full_name"`
	Email        string     `json:"email" db:"email"`
	Phone        string     `json:"phone" db:"phone"`
	Role         Role       `json:"role" db:"role"`
	Department   Department `json:"department" db:"department"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"-" db:"updated_at"`         // UTC
	LastLogin    *time.Time `json:"lastLogin,omitempty" db:"last_login"`
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

func (u *User) IsMentor() bool { return u.Role == RoleMentor }

func (u *User) IsMember() bool { return u.Role.IsMember() }

// Initial is the avatar letter shown in the portal sidebar.
func (u *User) Initial() string { return core.Initial(u.FullName) }

// NewUser contains the information needed to register a new member.
type NewUser struct {
	FullName   string     `json:"fullName" form:"fullName" validate:"required,notblank"`
	Email      string     `json:"email" form:"email" validate:"required,email"`
	Phone      string     `json:"phone" form:"phone" validate:"required,phone"`
	Password   string     `json:"password" form:"password" validate:"required"`
	Role       Role       `json:"role" form:"role" validate:"required,memberrole"`
	Department Department `json:"department" form:"department" validate:"required,department"`
}

func (nu *NewUser) Clean() {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Role = Role(core.CleanString(string(nu.Role)))
	nu.Department = Department(core.CleanString(string(nu.Department)))
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

type QueryFilter struct {
	Search      string       `query:"search"`
	Roles       []Role       `query:"role"`
	Departments []Department `query:"department"`
	IsActive    *bool        `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single user; the first non-empty field wins.
type GetFilter struct {
	ID    string
	Email string
}
