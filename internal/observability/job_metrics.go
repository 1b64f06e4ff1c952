package observability

import "time"

// RecordJob updates the worker metrics for one finished job.
// result is one of done|retry|failed.
func (p *Prom) RecordJob(jobType, result string, took time.Duration) {
	p.JobResults.WithLabelValues(jobType, result).Inc()
	p.JobDuration.WithLabelValues(jobType, result).Observe(took.Seconds())
}
