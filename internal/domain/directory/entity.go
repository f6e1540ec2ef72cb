// Package directory describes the collaborators that own users, categories
// and tasks. Ingestion only reads them.
package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// User is the part of a user profile needed for bucketing.
type User struct {
	ID             uuid.UUID
	Timezone       string
	FirstDayOfWeek int // time.Weekday numbering
}

// Location resolves the user's timezone, falling back to the reference zone.
func (u *User) Location() *time.Location {
	return timeutil.LoadLocation(u.Timezone)
}

// Category is a tracked life domain such as fitness or study.
type Category struct {
	ID   int64
	Key  string
	Name string
}

// CategorySetting is a user's weekly target for one category.
type CategorySetting struct {
	UserID             uuid.UUID
	CategoryID         int64
	CategoryKey        string
	WeeklyTargetPoints int64
	Enabled            bool
}

// Template holds catalog defaults shared by many user tasks.
type Template struct {
	ID            int64
	DefaultXP     *int64
	DefaultPoints *int64
	Unit          *string
}

// TaskRef is a user's task as resolved for ingestion.
type TaskRef struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	CategoryID        int64
	Active            bool
	XPOverride        *int64
	PointsOverride    *int64
	Template          *Template
	SchedulePeriod    timeutil.PeriodKind
	ScheduleInterval  int
	TargetOccurrences int
}

// BaseXP is the override, else the template default, else zero.
func (t *TaskRef) BaseXP() int64 {
	if t.XPOverride != nil {
		return *t.XPOverride
	}
	if t.Template != nil && t.Template.DefaultXP != nil {
		return *t.Template.DefaultXP
	}
	return 0
}

// BasePoints is the override, else the template default, else zero.
func (t *TaskRef) BasePoints() int64 {
	if t.PointsOverride != nil {
		return *t.PointsOverride
	}
	if t.Template != nil && t.Template.DefaultPoints != nil {
		return *t.Template.DefaultPoints
	}
	return 0
}

// DefaultUnit is the template unit, if any.
func (t *TaskRef) DefaultUnit() *string {
	if t.Template == nil {
		return nil
	}
	return t.Template.Unit
}

// Schedule returns the recurrence period and interval, defaulting to
// daily with interval 1.
func (t *TaskRef) Schedule() (timeutil.PeriodKind, int) {
	period := t.SchedulePeriod
	if period == "" {
		period = timeutil.PeriodDay
	}
	return period, max(t.ScheduleInterval, 1)
}

// Target is the number of occurrences expected per schedule window.
func (t *TaskRef) Target() int {
	return max(t.TargetOccurrences, 1)
}
