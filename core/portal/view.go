package portal

import (
	"github.com/adz4needz/portal/core/user"
)

type Screen string

const (
	ScreenLoading Screen = "loading"
	ScreenAuth    Screen = "auth"
	ScreenMentor  Screen = "mentor"
	ScreenStudent Screen = "student"
	ScreenError   Screen = "error"
)

// Subtree is the role view the authenticated shell renders.
type Subtree int

const (
	NoSubtree Subtree = iota
	MentorSubtree
	StudentSubtree // generic view for telecallers, interns & employees
)

// Route dispatches a role to its subtree. ok is false for values outside the Role enumeration.
func Route(role user.Role) (sub Subtree, ok bool) {
	switch role {
	case user.RoleMentor:
		return MentorSubtree, true
	case user.RoleTelecaller, user.RoleIntern, user.RoleEmployee:
		return StudentSubtree, true
	}
	return NoSubtree, false
}

type Sidebar struct {
	Initial   string
	Name      string
	RoleLabel string
	ID        string
	Accent    string // purple for mentors, blue otherwise
}

// View is the render model of a shell.
type View struct {
	State    State
	Screen   Screen
	Subtree  Subtree
	Sidebar  *Sidebar
	MenuOpen bool
	// User is the full record handed to the subtree.
	User  *user.User
	Error string
}

func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{State: s.state}
	switch s.state {
	case Loading:
		v.Screen = ScreenLoading
	case Unauthenticated:
		v.Screen = ScreenAuth
	case CheckFailed:
		v.Screen = ScreenError
		v.Error = "We could not check your session. Please try again."
	case Authenticated:
		usr := *s.usr
		sub, ok := Route(usr.Role)
		if !ok {
			v.Screen = ScreenError
			v.Error = "Your account has an unknown role."
			return v
		}
		v.Subtree = sub
		v.Screen = ScreenStudent
		accent := "blue"
		if sub == MentorSubtree {
			v.Screen = ScreenMentor
			accent = "purple"
		}
		v.User = &usr
		v.MenuOpen = s.menuOpen
		v.Sidebar = &Sidebar{
			Initial:   usr.Initial(),
			Name:      usr.FullName,
			RoleLabel: string(usr.Role),
			ID:        usr.ID,
			Accent:    accent,
		}
	}
	return v
}
