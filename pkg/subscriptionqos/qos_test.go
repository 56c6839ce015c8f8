package subscriptionqos

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFixedNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestSubscriptionQos_Defaults(t *testing.T) {
	q := NewMulticastSubscriptionQos(Settings{})

	assert.Equal(t, NoExpiryDate, q.ExpiryDateMs())
	assert.Equal(t, DefaultPublicationTtlMs, q.PublicationTtlMs())
	assert.False(t, q.IsExpired(time.Now().Add(100*365*24*time.Hour)), "no expiry date never expires")
	assert.NoError(t, q.Validate())
}

func TestSubscriptionQos_ValidityComputesExpiry(t *testing.T) {
	at := time.UnixMilli(1_000_000)
	withFixedNow(t, at)

	q := NewMulticastSubscriptionQos(Settings{ValidityMs: 5_000})

	assert.Equal(t, int64(1_005_000), q.ExpiryDateMs())
	assert.False(t, q.IsExpired(time.UnixMilli(1_005_000)))
	assert.True(t, q.IsExpired(time.UnixMilli(1_005_001)))
}

func TestSubscriptionQos_ExpiryDateTakesPrecedence(t *testing.T) {
	q := NewSubscriptionQos(Settings{ExpiryDateMs: 42, ValidityMs: 5_000})
	assert.Equal(t, int64(42), q.ExpiryDateMs())
}

func TestSubscriptionQos_PublicationTtlClamped(t *testing.T) {
	tests := []struct {
		name string
		ttl  int64
		want int64
	}{
		{"below minimum", 1, MinPublicationTtlMs},
		{"above maximum", MaxPublicationTtlMs + 1, MaxPublicationTtlMs},
		{"in range", 2_000, 2_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewSubscriptionQos(Settings{PublicationTtlMs: tt.ttl})
			assert.Equal(t, tt.want, q.PublicationTtlMs())
		})
	}
}

func TestSubscriptionQos_NegativeExpiryInvalid(t *testing.T) {
	q := NewMulticastSubscriptionQos(Settings{ExpiryDateMs: -5})
	assert.ErrorIs(t, q.Validate(), ErrInvalidQos)
}

func TestOnChangeSubscriptionQos_MinInterval(t *testing.T) {
	q := NewOnChangeSubscriptionQos(OnChangeSettings{})
	assert.Equal(t, DefaultMinIntervalMs, q.MinIntervalMs())

	q.SetMinIntervalMs(-1)
	assert.Equal(t, MinMinIntervalMs, q.MinIntervalMs())

	q.SetMinIntervalMs(MaxMinIntervalMs + 1)
	assert.Equal(t, MaxMinIntervalMs, q.MinIntervalMs())
}

func TestOnChangeWithKeepAlive_MaxIntervalNotBelowMinInterval(t *testing.T) {
	q := NewOnChangeWithKeepAliveSubscriptionQos(KeepAliveSettings{
		OnChangeSettings: OnChangeSettings{MinIntervalMs: 500},
		MaxIntervalMs:    100,
	})

	assert.Equal(t, int64(500), q.MaxIntervalMs())
	assert.Equal(t, NoAlertAfterIntervalMs, q.AlertAfterIntervalMs())
}

func TestOnChangeWithKeepAlive_AlertIntervalFollowsMaxInterval(t *testing.T) {
	q := NewOnChangeWithKeepAliveSubscriptionQos(KeepAliveSettings{
		OnChangeSettings:     OnChangeSettings{MinIntervalMs: 100},
		MaxIntervalMs:        1_000,
		AlertAfterIntervalMs: 500,
	})
	assert.Equal(t, int64(1_000), q.AlertAfterIntervalMs(), "alert interval is raised to max interval")

	q.SetMaxIntervalMs(3_000)
	assert.Equal(t, int64(3_000), q.AlertAfterIntervalMs())

	q.SetMinIntervalMs(5_000)
	assert.Equal(t, int64(5_000), q.MaxIntervalMs(), "raising min interval re-clamps max interval")
	assert.Equal(t, int64(5_000), q.AlertAfterIntervalMs())

	q.SetAlertAfterIntervalMs(MaxAlertAfterIntervalMs + 1)
	assert.Equal(t, MaxAlertAfterIntervalMs, q.AlertAfterIntervalMs())
}

func TestPeriodicSubscriptionQos_Clamping(t *testing.T) {
	q := NewPeriodicSubscriptionQos(PeriodicSettings{PeriodMs: 10, AlertAfterIntervalMs: 20})

	assert.Equal(t, MinPeriodMs, q.PeriodMs())
	assert.Equal(t, MinPeriodMs, q.AlertAfterIntervalMs())

	q.SetPeriodMs(1_000)
	assert.Equal(t, int64(1_000), q.AlertAfterIntervalMs())
}

func TestQosVariants_SatisfyCapabilitySet(t *testing.T) {
	variants := []Qos{
		NewSubscriptionQos(Settings{}),
		NewMulticastSubscriptionQos(Settings{}),
		NewOnChangeSubscriptionQos(OnChangeSettings{}),
		NewOnChangeWithKeepAliveSubscriptionQos(KeepAliveSettings{}),
		NewPeriodicSubscriptionQos(PeriodicSettings{}),
	}
	names := map[string]bool{}
	for _, q := range variants {
		names[q.TypeName()] = true
		assert.NoError(t, q.Validate())
	}
	assert.Len(t, names, len(variants), "every variant reports its own type name")
}

func TestFromRecord(t *testing.T) {
	t.Run("multicast", func(t *testing.T) {
		q, err := FromRecord(map[string]any{
			TypeNameKey:    MulticastSubscriptionQosType,
			"expiryDateMs": float64(1),
		})
		require.NoError(t, err)
		require.IsType(t, &MulticastSubscriptionQos{}, q)
		assert.Equal(t, int64(1), q.ExpiryDateMs())
	})

	t.Run("keep alive from json", func(t *testing.T) {
		var record map[string]any
		raw := `{"_typeName":"joynr.OnChangeWithKeepAliveSubscriptionQos","minIntervalMs":100,"maxIntervalMs":2000}`
		require.NoError(t, json.Unmarshal([]byte(raw), &record))

		q, err := FromRecord(record)
		require.NoError(t, err)
		keepAlive, ok := q.(*OnChangeWithKeepAliveSubscriptionQos)
		require.True(t, ok)
		assert.Equal(t, int64(100), keepAlive.MinIntervalMs())
		assert.Equal(t, int64(2000), keepAlive.MaxIntervalMs())
	})

	t.Run("missing type name", func(t *testing.T) {
		_, err := FromRecord(map[string]any{"expiryDateMs": 1})
		assert.ErrorIs(t, err, ErrUnknownQosType)
	})

	t.Run("unknown type name", func(t *testing.T) {
		_, err := FromRecord(map[string]any{TypeNameKey: "joynr.Nope"})
		assert.ErrorIs(t, err, ErrUnknownQosType)
	})

	t.Run("non numeric field", func(t *testing.T) {
		_, err := FromRecord(map[string]any{
			TypeNameKey:    OnChangeSubscriptionQosType,
			"expiryDateMs": "tomorrow",
		})
		assert.ErrorIs(t, err, ErrInvalidQos)
	})

	t.Run("out of int64 range", func(t *testing.T) {
		for _, v := range []float64{1e19, -1e19, 9223372036854775807, math.Inf(1), math.NaN()} {
			_, err := FromRecord(map[string]any{
				TypeNameKey:    MulticastSubscriptionQosType,
				"expiryDateMs": v,
			})
			assert.ErrorIs(t, err, ErrInvalidQos, "expiryDateMs %v", v)
		}
	})

	t.Run("largest exact float", func(t *testing.T) {
		q, err := FromRecord(map[string]any{
			TypeNameKey:    MulticastSubscriptionQosType,
			"expiryDateMs": float64(1 << 62),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1<<62), q.ExpiryDateMs())
	})

	t.Run("fractional field", func(t *testing.T) {
		_, err := FromRecord(map[string]any{
			TypeNameKey: PeriodicSubscriptionQosType,
			"periodMs":  1.5,
		})
		assert.ErrorIs(t, err, ErrInvalidQos)
	})
}

func TestToRecord_AcceptedByFromRecord(t *testing.T) {
	original := NewOnChangeSubscriptionQos(OnChangeSettings{
		Settings:      Settings{ExpiryDateMs: 99, PublicationTtlMs: 500},
		MinIntervalMs: 250,
	})

	decoded, err := FromRecord(ToRecord(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestAcceptedForMulticast(t *testing.T) {
	tests := []struct {
		name string
		qos  Qos
		want bool
	}{
		{"multicast", NewMulticastSubscriptionQos(Settings{}), true},
		{"base descriptor", NewSubscriptionQos(Settings{}), true},
		{"on change", NewOnChangeSubscriptionQos(OnChangeSettings{}), true},
		{"on change with keep alive", NewOnChangeWithKeepAliveSubscriptionQos(KeepAliveSettings{}), true},
		{"periodic", NewPeriodicSubscriptionQos(PeriodicSettings{}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AcceptedForMulticast(tt.qos))
		})
	}
}
