package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCondition(t *testing.T) {
	tests := map[string]Condition{
		"tasks_completed":                  {Base: "tasks_completed"},
		"tasks_completed_category:fitness": {Base: "tasks_completed_category", Qualifier: "fitness"},
		"custom:a:b":                       {Base: "custom", Qualifier: "a:b"},
		" streak_days : study ":            {Base: "streak_days", Qualifier: "study"},
		"":                                 {},
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseCondition(in), in)
	}
}

func TestParseThreshold(t *testing.T) {
	for _, raw := range []string{"5", " 5 ", "5.0", "80.5"} {
		_, ok := ParseThreshold(raw)
		assert.True(t, ok, raw)
	}
	for _, raw := range []string{"", "five", "5 days", "0x10"} {
		_, ok := ParseThreshold(raw)
		assert.False(t, ok, raw)
	}

	th, _ := ParseThreshold("4.5")
	assert.Equal(t, "4.5", th.String())
}

func TestDefinition_Qualifier(t *testing.T) {
	d := Definition{ConditionType: "streak_days", CategoryKey: "study"}
	assert.Equal(t, "study", d.Qualifier())

	d.ConditionType = "streak_days:fitness"
	assert.Equal(t, "fitness", d.Qualifier())
}
