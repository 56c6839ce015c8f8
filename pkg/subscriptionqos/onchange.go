package subscriptionqos

const (
	// DefaultMinIntervalMs is the default minimum interval between on-change publications
	DefaultMinIntervalMs int64 = 1_000
	// MinMinIntervalMs is the smallest accepted minimum interval
	MinMinIntervalMs int64 = 0
	// MaxMinIntervalMs is the largest accepted minimum interval (30 days)
	MaxMinIntervalMs int64 = 2_592_000_000

	// MaxMaxIntervalMs is the largest accepted keep-alive interval (30 days)
	MaxMaxIntervalMs int64 = 2_592_000_000
	// MaxAlertAfterIntervalMs is the largest accepted alert interval (30 days)
	MaxAlertAfterIntervalMs int64 = 2_592_000_000
	// NoAlertAfterIntervalMs disables missed-publication alerts
	NoAlertAfterIntervalMs int64 = 0
)

// OnChangeSettings configures an OnChangeSubscriptionQos.
// A zero MinIntervalMs selects DefaultMinIntervalMs; use SetMinIntervalMs(0) for no throttling.
type OnChangeSettings struct {
	Settings
	MinIntervalMs int64
}

// OnChangeSubscriptionQos publishes on every change, but no more often than MinIntervalMs.
// It is also accepted for multicast subscriptions for compatibility with older providers.
type OnChangeSubscriptionQos struct {
	SubscriptionQos
	minIntervalMs int64
}

// NewOnChangeSubscriptionQos creates an on-change descriptor from settings.
func NewOnChangeSubscriptionQos(settings OnChangeSettings) *OnChangeSubscriptionQos {
	q := &OnChangeSubscriptionQos{}
	q.initOnChange(settings)
	return q
}

func (q *OnChangeSubscriptionQos) initOnChange(settings OnChangeSettings) {
	q.init(settings.Settings, now())
	minInterval := settings.MinIntervalMs
	if minInterval == 0 {
		minInterval = DefaultMinIntervalMs
	}
	q.minIntervalMs = clamp(minInterval, MinMinIntervalMs, MaxMinIntervalMs)
}

// TypeName returns "joynr.OnChangeSubscriptionQos"
func (q *OnChangeSubscriptionQos) TypeName() string {
	return OnChangeSubscriptionQosType
}

// MinIntervalMs returns the minimum interval between publications
func (q *OnChangeSubscriptionQos) MinIntervalMs() int64 {
	return q.minIntervalMs
}

// SetMinIntervalMs sets the minimum interval, clamped into range
func (q *OnChangeSubscriptionQos) SetMinIntervalMs(minIntervalMs int64) {
	q.minIntervalMs = clamp(minIntervalMs, MinMinIntervalMs, MaxMinIntervalMs)
}

// KeepAliveSettings configures an OnChangeWithKeepAliveSubscriptionQos.
type KeepAliveSettings struct {
	OnChangeSettings
	MaxIntervalMs        int64
	AlertAfterIntervalMs int64
}

// OnChangeWithKeepAliveSubscriptionQos publishes on change and at least every MaxIntervalMs.
// If AlertAfterIntervalMs is set and no publication arrives within it, the subscriber is alerted.
type OnChangeWithKeepAliveSubscriptionQos struct {
	OnChangeSubscriptionQos
	maxIntervalMs        int64
	alertAfterIntervalMs int64
}

// NewOnChangeWithKeepAliveSubscriptionQos creates a keep-alive descriptor from settings.
func NewOnChangeWithKeepAliveSubscriptionQos(settings KeepAliveSettings) *OnChangeWithKeepAliveSubscriptionQos {
	q := &OnChangeWithKeepAliveSubscriptionQos{}
	q.initOnChange(settings.OnChangeSettings)
	q.maxIntervalMs = q.minIntervalMs
	q.alertAfterIntervalMs = NoAlertAfterIntervalMs
	q.SetMaxIntervalMs(settings.MaxIntervalMs)
	q.SetAlertAfterIntervalMs(settings.AlertAfterIntervalMs)
	return q
}

// TypeName returns "joynr.OnChangeWithKeepAliveSubscriptionQos"
func (q *OnChangeWithKeepAliveSubscriptionQos) TypeName() string {
	return OnChangeWithKeepAliveSubscriptionQosType
}

// MaxIntervalMs returns the keep-alive interval
func (q *OnChangeWithKeepAliveSubscriptionQos) MaxIntervalMs() int64 {
	return q.maxIntervalMs
}

// SetMaxIntervalMs sets the keep-alive interval.
// It never drops below MinIntervalMs and pushes a configured alert interval up with it.
func (q *OnChangeWithKeepAliveSubscriptionQos) SetMaxIntervalMs(maxIntervalMs int64) {
	q.maxIntervalMs = maxIntervalMs
	if q.maxIntervalMs < q.minIntervalMs {
		q.maxIntervalMs = q.minIntervalMs
	}
	if q.maxIntervalMs > MaxMaxIntervalMs {
		q.maxIntervalMs = MaxMaxIntervalMs
	}
	if q.alertAfterIntervalMs != NoAlertAfterIntervalMs && q.alertAfterIntervalMs < q.maxIntervalMs {
		q.alertAfterIntervalMs = q.maxIntervalMs
	}
}

// SetMinIntervalMs sets the minimum interval and re-clamps the keep-alive interval
func (q *OnChangeWithKeepAliveSubscriptionQos) SetMinIntervalMs(minIntervalMs int64) {
	q.OnChangeSubscriptionQos.SetMinIntervalMs(minIntervalMs)
	q.SetMaxIntervalMs(q.maxIntervalMs)
}

// AlertAfterIntervalMs returns the alert interval, or NoAlertAfterIntervalMs
func (q *OnChangeWithKeepAliveSubscriptionQos) AlertAfterIntervalMs() int64 {
	return q.alertAfterIntervalMs
}

// SetAlertAfterIntervalMs sets the alert interval; a non-zero value is at least MaxIntervalMs
func (q *OnChangeWithKeepAliveSubscriptionQos) SetAlertAfterIntervalMs(alertAfterIntervalMs int64) {
	q.alertAfterIntervalMs = alertAfterIntervalMs
	if q.alertAfterIntervalMs > MaxAlertAfterIntervalMs {
		q.alertAfterIntervalMs = MaxAlertAfterIntervalMs
	}
	if q.alertAfterIntervalMs != NoAlertAfterIntervalMs && q.alertAfterIntervalMs < q.maxIntervalMs {
		q.alertAfterIntervalMs = q.maxIntervalMs
	}
}
