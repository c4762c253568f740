package domain

type (
	// RoomID is the per-course scope partitioning all live session state.
	RoomID   string
	CourseID = RoomID
)

// Course is the externally owned record the access gate consults.
// Only the fields needed for authorization are resolved here.
type Course struct {
	ID           CourseID
	Title        string
	InstructorID UserID
}
