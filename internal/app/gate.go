package app

import (
	"context"
	"fmt"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// Level is the access tier a command requires.
type Level int

const (
	// LevelMember admits enrolled students, the course instructor and admins.
	LevelMember Level = iota
	// LevelPrivileged admits only the course instructor and admins.
	LevelPrivileged
)

func (l Level) String() string {
	if l == LevelPrivileged {
		return "privileged"
	}
	return "member"
}

// AccessGate is the stateless authorization check every mutating
// command passes before touching room state.
type AccessGate struct {
	dir core.CourseDirectory
}

func NewAccessGate(dir core.CourseDirectory) *AccessGate {
	return &AccessGate{dir: dir}
}

// Authorize returns core.ErrForbidden when the user does not meet the
// required level for the course. Callers check then act; a failed
// check leaves all state untouched.
func (g *AccessGate) Authorize(ctx context.Context, u *domain.User, roomID domain.RoomID, level Level) error {
	if u.Role == domain.RoleAdmin {
		return nil
	}

	course, err := g.dir.Course(ctx, roomID)
	if err != nil {
		return fmt.Errorf("resolve course %s: %w", roomID, err)
	}
	if course.InstructorID == u.ID {
		return nil
	}

	if level == LevelPrivileged {
		return fmt.Errorf("user %s needs %s on course %s: %w", u.ID, level, roomID, core.ErrForbidden)
	}

	enrolled, err := g.dir.IsEnrolled(ctx, roomID, u.ID)
	if err != nil {
		return fmt.Errorf("resolve enrollment %s/%s: %w", roomID, u.ID, err)
	}
	if !enrolled {
		return fmt.Errorf("user %s not enrolled in course %s: %w", u.ID, roomID, core.ErrForbidden)
	}
	return nil
}
