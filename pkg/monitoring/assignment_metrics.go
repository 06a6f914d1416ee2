package monitoring

import "github.com/prometheus/client_golang/prometheus"

// Результаты перехода для метки result
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// AssignmentMetrics — доменные метрики жизненного цикла назначений.
// Все методы безопасны для nil-получателя (метрики выключены).
type AssignmentMetrics struct {
	transitions     *prometheus.CounterVec
	lateSubmissions *prometheus.CounterVec
	scores          *prometheus.HistogramVec
	sweeperSubmits  prometheus.Counter
}

// NewAssignmentMetrics создает и регистрирует метрики в reg
func NewAssignmentMetrics(reg prometheus.Registerer) *AssignmentMetrics {
	m := &AssignmentMetrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assignment_transitions_total",
				Help: "Assignment lifecycle transitions by outcome",
			},
			[]string{"transition", "result"},
		),
		lateSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assignment_late_submissions_total",
				Help: "Submissions accepted after the assessment deadline",
			},
			[]string{"type"},
		),
		scores: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assignment_score",
				Help:    "Distribution of assignment scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"type"},
		),
		sweeperSubmits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expiry_sweeper_submitted_total",
				Help: "Expired attempts force-submitted by the sweeper",
			},
		),
	}
	reg.MustRegister(m.transitions, m.lateSubmissions, m.scores, m.sweeperSubmits)
	return m
}

// Transition фиксирует исход перехода (start, submit, review, amend)
func (m *AssignmentMetrics) Transition(transition, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, result).Inc()
}

// LateSubmission фиксирует сдачу после дедлайна
func (m *AssignmentMetrics) LateSubmission(assessmentType string) {
	if m == nil {
		return
	}
	m.lateSubmissions.WithLabelValues(assessmentType).Inc()
}

// Score фиксирует выставленный балл
func (m *AssignmentMetrics) Score(assessmentType string, score int) {
	if m == nil {
		return
	}
	m.scores.WithLabelValues(assessmentType).Observe(float64(score))
}

// SweeperSubmitted фиксирует принудительную сдачу
func (m *AssignmentMetrics) SweeperSubmitted() {
	if m == nil {
		return
	}
	m.sweeperSubmits.Inc()
}
