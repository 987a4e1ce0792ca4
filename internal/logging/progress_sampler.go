package logging

// ProgressSampler suppresses repetitive enrichment progress logs, emitting only
// when the completion percentage crosses a bucket boundary or the run finishes.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
	finished   bool
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 10%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether progress at processed/total deserves a log line.
// A zero total is treated as complete.
func (s *ProgressSampler) ShouldLog(processed, total int) bool {
	if s == nil {
		return true
	}
	if total <= 0 || processed >= total {
		if s.finished {
			return false
		}
		s.finished = true
		return true
	}
	percent := float64(processed) / float64(total) * 100
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return true
	}
	return false
}

// Reset clears the sampler state before a new run.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
	s.finished = false
}
