package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// courseRecord mirrors the courses table owned by the course service.
type courseRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	Title        string `gorm:"size:255"`
	InstructorID string `gorm:"column:instructor_id;size:64;index"`
}

func (courseRecord) TableName() string { return "courses" }

// enrollmentRecord mirrors the enrollments join table. Only active
// enrollments grant access.
type enrollmentRecord struct {
	CourseID string `gorm:"column:course_id;size:64;primaryKey"`
	UserID   string `gorm:"column:user_id;size:64;primaryKey"`
	Active   bool   `gorm:"column:active"`
}

func (enrollmentRecord) TableName() string { return "enrollments" }

// CourseRepository implements core.CourseDirectory over the platform's
// relational tables.
type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	if db == nil {
		panic("database connection cannot be nil for CourseRepository")
	}
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Course(ctx context.Context, id domain.CourseID) (*domain.Course, error) {
	var rec courseRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", string(id)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("gorm: load course %s: %w", id, err)
	}
	return &domain.Course{
		ID:           domain.CourseID(rec.ID),
		Title:        rec.Title,
		InstructorID: domain.UserID(rec.InstructorID),
	}, nil
}

func (r *CourseRepository) IsEnrolled(ctx context.Context, courseID domain.CourseID, userID domain.UserID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&enrollmentRecord{}).
		Where("course_id = ? AND user_id = ? AND active = ?", string(courseID), string(userID), true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check enrollment %s/%s: %w", courseID, userID, err)
	}
	return count > 0, nil
}
