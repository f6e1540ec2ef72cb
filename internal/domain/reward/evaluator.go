package reward

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// Condition bases understood by the default registry.
const (
	ConditionTasksCompleted         = "tasks_completed"
	ConditionTasksCompletedCategory = "tasks_completed_category"
	ConditionStreakDays             = "streak_days"
	ConditionStatsBalance           = "stats_balance"
)

// Subject is the user a catalog is evaluated for, as of a given instant.
type Subject struct {
	UserID         uuid.UUID
	FirstDayOfWeek int
	AsOf           time.Time
}

// CurrentWeekStart is the start date of the week containing AsOf.
func (s Subject) CurrentWeekStart() time.Time {
	return timeutil.Resolve(timeutil.PeriodWeek, timeutil.ToReference(s.AsOf), s.FirstDayOfWeek, 1).StartDate()
}

// Evaluator decides whether a condition holds for a subject.
type Evaluator interface {
	Evaluate(ctx context.Context, facts Facts, subject Subject, threshold decimal.Decimal, qualifier string) (bool, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, facts Facts, subject Subject, threshold decimal.Decimal, qualifier string) (bool, error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(ctx context.Context, facts Facts, subject Subject, threshold decimal.Decimal, qualifier string) (bool, error) {
	return f(ctx, facts, subject, threshold, qualifier)
}

// never is returned for unknown bases.
var never = EvaluatorFunc(func(context.Context, Facts, Subject, decimal.Decimal, string) (bool, error) {
	return false, nil
})

// Registry maps condition bases to evaluators.
type Registry struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// DefaultRegistry returns a registry with the built-in evaluators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ConditionTasksCompleted, EvaluatorFunc(tasksCompleted))
	r.Register(ConditionTasksCompletedCategory, EvaluatorFunc(tasksCompletedInCategory))
	r.Register(ConditionStreakDays, EvaluatorFunc(streakDays))
	r.Register(ConditionStatsBalance, EvaluatorFunc(statsBalance))
	return r
}

// Register binds base to ev, replacing any previous evaluator.
func (r *Registry) Register(base string, ev Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluators[base] = ev
}

// Lookup returns the evaluator for base. Unknown bases get an evaluator
// that never matches; known reports which case applied.
func (r *Registry) Lookup(base string) (ev Evaluator, known bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ev, ok := r.evaluators[base]; ok {
		return ev, true
	}
	return never, false
}

// Bases lists registered bases in sorted order.
func (r *Registry) Bases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.evaluators))
	for base := range r.evaluators {
		out = append(out, base)
	}
	sort.Strings(out)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILT-IN EVALUATORS
// ══════════════════════════════════════════════════════════════════════════════

func tasksCompleted(ctx context.Context, facts Facts, s Subject, threshold decimal.Decimal, _ string) (bool, error) {
	n, err := facts.CountTaskLogs(ctx, s.UserID)
	if err != nil {
		return false, err
	}
	return decimal.NewFromInt(n).GreaterThanOrEqual(threshold), nil
}

func tasksCompletedInCategory(ctx context.Context, facts Facts, s Subject, threshold decimal.Decimal, categoryKey string) (bool, error) {
	if categoryKey == "" {
		return false, nil
	}
	n, err := facts.CountTaskLogsInCategory(ctx, s.UserID, categoryKey)
	if err != nil {
		return false, err
	}
	return decimal.NewFromInt(n).GreaterThanOrEqual(threshold), nil
}

func streakDays(ctx context.Context, facts Facts, s Subject, threshold decimal.Decimal, categoryKey string) (bool, error) {
	best, err := facts.MaxCurrentStreak(ctx, s.UserID, categoryKey)
	if err != nil {
		return false, err
	}
	return decimal.NewFromInt(int64(best)).GreaterThanOrEqual(threshold), nil
}

var hundred = decimal.NewFromInt(100)

// statsBalance holds when every enabled category reached threshold percent
// of its weekly target this week. No categories, or any category without a
// positive target, fails the check.
func statsBalance(ctx context.Context, facts Facts, s Subject, threshold decimal.Decimal, _ string) (bool, error) {
	rows, err := facts.WeeklyBalance(ctx, s.UserID, s.CurrentWeekStart())
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	for _, row := range rows {
		if row.TargetPoints <= 0 {
			return false, nil
		}
		pct := decimal.NewFromInt(row.EarnedPoints).Mul(hundred).Div(decimal.NewFromInt(row.TargetPoints))
		if pct.LessThan(threshold) {
			return false, nil
		}
	}
	return true, nil
}
