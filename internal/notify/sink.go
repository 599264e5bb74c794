package notify

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Sink buffers log lines and flushes them to the configured chat webhooks
// when either the size threshold or the age threshold is reached. It
// implements io.Writer so it can be attached to the standard logger as an
// extra output. Delivery is side-effect only: send failures are reported to
// stderr and the lines dropped.
type Sink struct {
	wecom  *WeComClient
	feishu *FeishuClient

	mu        sync.Mutex
	buf       []string
	lastFlush time.Time

	maxBuffer   int
	maxInterval time.Duration

	// now is swapped out in tests.
	now func() time.Time
}

func NewSink(wecom *WeComClient, feishu *FeishuClient, maxBuffer int, maxInterval time.Duration) *Sink {
	if maxBuffer <= 0 {
		maxBuffer = 50
	}
	if maxInterval <= 0 {
		maxInterval = 15 * time.Second
	}
	return &Sink{
		wecom:       wecom,
		feishu:      feishu,
		lastFlush:   time.Now(),
		maxBuffer:   maxBuffer,
		maxInterval: maxInterval,
		now:         time.Now,
	}
}

// Write buffers one log line. Always reports success so a failing webhook
// can never break the logger it is attached to.
func (s *Sink) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if line == "" {
		return len(p), nil
	}
	s.mu.Lock()
	s.buf = append(s.buf, line)
	shouldFlush := len(s.buf) >= s.maxBuffer || s.now().Sub(s.lastFlush) > s.maxInterval
	var pending []string
	if shouldFlush {
		pending = s.drainLocked()
	}
	s.mu.Unlock()
	if pending != nil {
		s.deliver(pending)
	}
	return len(p), nil
}

// Flush sends whatever is buffered, regardless of thresholds.
func (s *Sink) Flush() {
	s.mu.Lock()
	pending := s.drainLocked()
	s.mu.Unlock()
	if pending != nil {
		s.deliver(pending)
	}
}

// Len reports the number of buffered lines.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *Sink) drainLocked() []string {
	if len(s.buf) == 0 {
		s.lastFlush = s.now()
		return nil
	}
	pending := s.buf
	s.buf = nil
	s.lastFlush = s.now()
	return pending
}

func (s *Sink) deliver(lines []string) {
	content := strings.Join(lines, "\n")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.wecom != nil {
		if err := s.wecom.SendText(ctx, "[CRM Sync]\n"+content); err != nil {
			fmt.Fprintf(os.Stderr, "wecom sink flush failed: %v\n", err)
		}
	}
	if s.feishu != nil {
		if err := s.feishu.SendText(ctx, "[CRM Sync]\n"+content); err != nil {
			fmt.Fprintf(os.Stderr, "feishu sink flush failed: %v\n", err)
		}
	}
}
