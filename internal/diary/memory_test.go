package diary

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
)

type memoryRepo struct {
	mu      sync.Mutex
	seq     int64
	nextID  int64
	jobs    map[int64]Job
	deleted []int64
	now     func() time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{jobs: make(map[int64]Job), now: time.Now}
}

func (m *memoryRepo) NextOrderSequence(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *memoryRepo) Create(_ context.Context, job Job) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	job.ID = m.nextID
	job.CreatedAt = m.now()
	job.UpdatedAt = job.CreatedAt
	m.jobs[job.ID] = job
	return job.ID, nil
}

func (m *memoryRepo) Update(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.jobs[job.ID]
	if !ok {
		return shared.NotFound("job", job.ID)
	}
	job.CreatedAt = existing.CreatedAt
	job.QuoteOfferSentAt = existing.QuoteOfferSentAt
	job.UpdatedAt = m.now()
	m.jobs[job.ID] = job
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, shared.NotFound("job", id)
	}
	return &job, nil
}

func (m *memoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[id]
	return ok, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return shared.NotFound("job", id)
	}
	delete(m.jobs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryRepo) SetStatus(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return shared.NotFound("job", id)
	}
	job.Status = status
	m.jobs[id] = job
	return nil
}

func (m *memoryRepo) Convert(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Kind != KindQuote {
		return shared.NotFound("quote", id)
	}
	job.Kind = KindJob
	job.Status = status
	m.jobs[id] = job
	return nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Job, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Job
	for _, job := range m.jobs {
		if job.Status == settings.StatusCancelled {
			continue
		}
		if filter.Kind != "" && job.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) CountActiveByStatus(_ context.Context, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == settings.StatusCompleted || status == settings.StatusCancelled {
		return 0, nil
	}
	n := 0
	for _, job := range m.jobs {
		if job.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) AgedQuotes(_ context.Context, createdBefore time.Time, limit int) ([]AgedQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AgedQuote
	for _, job := range m.jobs {
		if job.Kind == KindQuote && !job.IsCancelled() && job.QuoteOfferSentAt == nil && job.CreatedAt.Before(createdBefore) {
			out = append(out, AgedQuote{ID: job.ID, CreatedAt: job.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) MarkQuoteOfferSent(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return shared.NotFound("quote", id)
	}
	job.QuoteOfferSentAt = &at
	m.jobs[id] = job
	return nil
}

type staticSettings struct{ cfg settings.Settings }

func (s staticSettings) Load(context.Context) (settings.Settings, error) { return s.cfg, nil }

type fixedPayments map[int64]decimal.Decimal

func (f fixedPayments) TotalForJob(_ context.Context, jobID int64) (decimal.Decimal, error) {
	return f[jobID], nil
}

type scheduledReminder struct {
	JobID       int64
	Appointment time.Time
	At          time.Time
	Channel     string
}

type recordingScheduler struct{ calls []scheduledReminder }

func (r *recordingScheduler) ScheduleAppointmentReminder(_ context.Context, jobID int64, appointment, at time.Time, channel string) error {
	r.calls = append(r.calls, scheduledReminder{JobID: jobID, Appointment: appointment, At: at, Channel: channel})
	return nil
}

type knownCustomers map[int64]bool

func (k knownCustomers) Exists(_ context.Context, id int64) (bool, error) { return k[id], nil }

type recordingAuditor struct{ logs []shared.AuditLog }

func (r *recordingAuditor) Record(_ context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}
