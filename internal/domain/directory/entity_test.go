package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

func ptr[T any](v T) *T { return &v }

func TestTaskRef_BaseAmounts(t *testing.T) {
	tests := []struct {
		name       string
		task       TaskRef
		wantXP     int64
		wantPoints int64
	}{
		{"override wins", TaskRef{XPOverride: ptr(int64(40)), PointsOverride: ptr(int64(3)), Template: &Template{DefaultXP: ptr(int64(10)), DefaultPoints: ptr(int64(1))}}, 40, 3},
		{"zero override is kept", TaskRef{XPOverride: ptr(int64(0)), Template: &Template{DefaultXP: ptr(int64(10))}}, 0, 0},
		{"template default", TaskRef{Template: &Template{DefaultXP: ptr(int64(10)), DefaultPoints: ptr(int64(2))}}, 10, 2},
		{"nothing set", TaskRef{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantXP, tt.task.BaseXP())
			assert.Equal(t, tt.wantPoints, tt.task.BasePoints())
		})
	}
}

func TestTaskRef_ScheduleDefaults(t *testing.T) {
	period, interval := (&TaskRef{}).Schedule()
	assert.Equal(t, timeutil.PeriodDay, period)
	assert.Equal(t, 1, interval)
	assert.Equal(t, 1, (&TaskRef{TargetOccurrences: -3}).Target())

	period, interval = (&TaskRef{SchedulePeriod: timeutil.PeriodWeek, ScheduleInterval: 2}).Schedule()
	assert.Equal(t, timeutil.PeriodWeek, period)
	assert.Equal(t, 2, interval)
}

func TestUser_Location(t *testing.T) {
	assert.Equal(t, timeutil.ReferenceZone, (&User{Timezone: "not/a_zone"}).Location())
}
