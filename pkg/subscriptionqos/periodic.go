package subscriptionqos

const (
	// DefaultPeriodMs is the default publication period
	DefaultPeriodMs int64 = 60_000
	// MinPeriodMs is the smallest accepted publication period
	MinPeriodMs int64 = 50
	// MaxPeriodMs is the largest accepted publication period (30 days)
	MaxPeriodMs int64 = 2_592_000_000
)

// PeriodicSettings configures a PeriodicSubscriptionQos.
type PeriodicSettings struct {
	Settings
	PeriodMs             int64
	AlertAfterIntervalMs int64
}

// PeriodicSubscriptionQos publishes the current value every PeriodMs.
type PeriodicSubscriptionQos struct {
	SubscriptionQos
	periodMs             int64
	alertAfterIntervalMs int64
}

// NewPeriodicSubscriptionQos creates a periodic descriptor from settings.
func NewPeriodicSubscriptionQos(settings PeriodicSettings) *PeriodicSubscriptionQos {
	q := &PeriodicSubscriptionQos{}
	q.init(settings.Settings, now())
	period := settings.PeriodMs
	if period == 0 {
		period = DefaultPeriodMs
	}
	q.SetPeriodMs(period)
	q.SetAlertAfterIntervalMs(settings.AlertAfterIntervalMs)
	return q
}

// TypeName returns "joynr.PeriodicSubscriptionQos"
func (q *PeriodicSubscriptionQos) TypeName() string {
	return PeriodicSubscriptionQosType
}

// PeriodMs returns the publication period
func (q *PeriodicSubscriptionQos) PeriodMs() int64 {
	return q.periodMs
}

// SetPeriodMs sets the period, clamped into range
func (q *PeriodicSubscriptionQos) SetPeriodMs(periodMs int64) {
	q.periodMs = clamp(periodMs, MinPeriodMs, MaxPeriodMs)
	if q.alertAfterIntervalMs != NoAlertAfterIntervalMs && q.alertAfterIntervalMs < q.periodMs {
		q.alertAfterIntervalMs = q.periodMs
	}
}

// AlertAfterIntervalMs returns the alert interval, or NoAlertAfterIntervalMs
func (q *PeriodicSubscriptionQos) AlertAfterIntervalMs() int64 {
	return q.alertAfterIntervalMs
}

// SetAlertAfterIntervalMs sets the alert interval; a non-zero value is at least PeriodMs
func (q *PeriodicSubscriptionQos) SetAlertAfterIntervalMs(alertAfterIntervalMs int64) {
	q.alertAfterIntervalMs = alertAfterIntervalMs
	if q.alertAfterIntervalMs > MaxAlertAfterIntervalMs {
		q.alertAfterIntervalMs = MaxAlertAfterIntervalMs
	}
	if q.alertAfterIntervalMs != NoAlertAfterIntervalMs && q.alertAfterIntervalMs < q.periodMs {
		q.alertAfterIntervalMs = q.periodMs
	}
}
