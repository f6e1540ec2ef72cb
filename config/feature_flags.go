package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags holds runtime toggles read from FEATURE_* variables.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	FeatureRewardEvaluation = "rewards.evaluation"     // evaluate the catalog on every submission
	FeatureAuditLog         = "events.audit_log"       // log every published domain event
	FeatureLevelCache       = "cache.level_view"       // serve level reads from redis
	FeatureCatalogRefresh   = "scheduler.catalog_refresh"
)

// LoadFeatureFlags builds the defaults and applies environment overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: map[string]*Feature{
		FeatureRewardEvaluation: {Name: FeatureRewardEvaluation, Description: "Evaluate reward conditions after each task log", Enabled: true},
		FeatureAuditLog:         {Name: FeatureAuditLog, Description: "Write domain events to the log", Enabled: true},
		FeatureLevelCache:       {Name: FeatureLevelCache, Description: "Cache level views in redis", Enabled: true},
		FeatureCatalogRefresh:   {Name: FeatureCatalogRefresh, Description: "Refresh the reward catalog cache periodically", Enabled: true},
	}}
	ff.loadFromEnvironment()
	return ff
}

// loadFromEnvironment applies FEATURE_<NAME>=true|false.
// Example: FEATURE_EVENTS_AUDIT_LOG=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		if val := os.Getenv(featureNameToEnvKey(name)); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// featureNameToEnvKey converts "events.audit_log" to "FEATURE_EVENTS_AUDIT_LOG".
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether the feature exists and is on.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// EnableFeature turns a feature on.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.set(featureName, true)
}

// DisableFeature turns a feature off.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.set(featureName, false)
}

func (ff *FeatureFlags) set(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	feature.Enabled = enabled
	return nil
}

// Names returns the sorted feature names.
func (ff *FeatureFlags) Names() []string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	names := make([]string, 0, len(ff.features))
	for name := range ff.features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- Errors ---

// ErrFeatureNotFound is returned for unknown feature names.
var ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
