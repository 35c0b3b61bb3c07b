package health

import (
	"context"
	"time"
)

// namedChecker pairs a Checker with the name it reports under.
type namedChecker struct {
	name    string
	checker Checker
}

// Registry runs a fixed set of named Checkers and aggregates their results
// into a Report.
type Registry struct {
	checks []namedChecker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a named Checker. Names are not deduplicated: registering a
// name twice runs both checkers, and both appear in the Report.
func (r *Registry) Register(name string, checker Checker) {
	r.checks = append(r.checks, namedChecker{name: name, checker: checker})
}

// Run executes every registered Checker and returns the aggregate Report.
// The report is unhealthy if any individual check is unhealthy.
func (r *Registry) Run(ctx context.Context) Report {
	start := time.Now()
	report := Report{Healthy: true}

	for _, nc := range r.checks {
		checkStart := time.Now()
		details, err := nc.checker.HealthCheck(ctx)

		check := Check{
			Name:     nc.name,
			Healthy:  err == nil,
			Duration: time.Since(checkStart),
		}
		if err != nil {
			check.Error = err.Error()
			report.Healthy = false
		}
		if m, ok := details.(map[string]interface{}); ok {
			check.Details = m
		}
		report.Checks = append(report.Checks, check)
	}

	report.Duration = time.Since(start)
	return report
}
