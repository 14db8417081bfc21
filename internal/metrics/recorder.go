package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mategrade"

// Grading outcomes reported in mategrade_gradings_total.
const (
	OutcomeSuccess       = "success"
	OutcomePersistFailed = "persist_failed"
	OutcomeFailed        = "failed"
)

// Recorder collects pipeline metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	gradings             *prometheus.CounterVec
	evaluatorUnavailable prometheus.Counter
	ruleSkipped          prometheus.Counter
	promptTruncated      prometheus.Counter
	grades               prometheus.Histogram
	stageDuration        *prometheus.HistogramVec
}

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		gradings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gradings_total",
			Help:      "Grading runs by outcome.",
		}, []string{"outcome"}),
		evaluatorUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluator_unavailable_total",
			Help:      "Grading runs that fell back to regex rules only.",
		}),
		ruleSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_skipped_total",
			Help:      "Regex rules skipped because they were invalid.",
		}),
		promptTruncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_truncated_total",
			Help:      "Grading runs whose code context did not fit the prompt budget.",
		}),
		grades: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grade",
			Help:      "Distribution of computed grades.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"stage"}),
	}

	collectors := []prometheus.Collector{
		r.gradings,
		r.evaluatorUnavailable,
		r.ruleSkipped,
		r.promptTruncated,
		r.grades,
		r.stageDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveGrading(outcome string) {
	if r == nil {
		return
	}
	r.gradings.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveGrade(grade int) {
	if r == nil {
		return
	}
	r.grades.Observe(float64(grade))
}

func (r *Recorder) EvaluatorUnavailable() {
	if r == nil {
		return
	}
	r.evaluatorUnavailable.Inc()
}

func (r *Recorder) RulesSkipped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.ruleSkipped.Add(float64(n))
}

func (r *Recorder) PromptTruncated() {
	if r == nil {
		return
	}
	r.promptTruncated.Inc()
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes every metric gathered by g in the node_exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
