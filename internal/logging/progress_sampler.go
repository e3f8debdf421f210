package logging

import (
	"strings"
	"sync"
)

// ProgressSampler thins download progress logs down to one line per
// percentage bucket, or one line per byte step when the total is unknown.
// It is safe for concurrent use.
type ProgressSampler struct {
	mu         sync.Mutex
	bucketSize float64
	byteStep   int64
	lastLabel  string
	lastBucket int
	lastBytes  int64
}

// NewProgressSampler emits when percent crosses a bucket boundary (default 10%)
// or the label changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, byteStep: 50 << 20, lastBucket: -1, lastBytes: -1}
}

// ShouldLog reports whether an event at percent should be logged. A negative
// percent means unknown; only label changes emit in that case.
func (s *ProgressSampler) ShouldLog(percent float64, label string) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	emit := s.labelChangedLocked(label)
	if percent >= 0 {
		bucket := int(percent / s.bucketSize)
		if percent >= 100 {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// ShouldLogBytes samples progress for downloads without a known length.
func (s *ProgressSampler) ShouldLogBytes(downloaded int64, label string) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	emit := s.labelChangedLocked(label)
	step := downloaded / s.byteStep
	if step > s.lastBytes {
		s.lastBytes = step
		emit = true
	}
	return emit
}

func (s *ProgressSampler) labelChangedLocked(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || label == s.lastLabel {
		return false
	}
	s.lastLabel = label
	s.lastBucket = -1
	s.lastBytes = -1
	return true
}

func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLabel = ""
	s.lastBucket = -1
	s.lastBytes = -1
}
