package subscriptionqos

import (
	"encoding/json"
	"fmt"
	"math"
)

// TypeNameKey is the record key naming the descriptor type
const TypeNameKey = "_typeName"

// FromRecord builds a descriptor from a decoded settings record such as
//
//	{"_typeName": "joynr.MulticastSubscriptionQos", "expiryDateMs": 1}
//
// The record must name a known type; numeric fields may be any Go integer or float
// type, or json.Number.
func FromRecord(record map[string]any) (Qos, error) {
	typeName, ok := record[TypeNameKey].(string)
	if !ok {
		return nil, fmt.Errorf("%w: record has no %s", ErrUnknownQosType, TypeNameKey)
	}

	base, err := settingsFromRecord(record)
	if err != nil {
		return nil, err
	}

	switch typeName {
	case SubscriptionQosType:
		return NewSubscriptionQos(base), nil
	case MulticastSubscriptionQosType:
		return NewMulticastSubscriptionQos(base), nil
	case OnChangeSubscriptionQosType:
		minInterval, err := int64Field(record, "minIntervalMs")
		if err != nil {
			return nil, err
		}
		return NewOnChangeSubscriptionQos(OnChangeSettings{Settings: base, MinIntervalMs: minInterval}), nil
	case OnChangeWithKeepAliveSubscriptionQosType:
		fields, err := int64Fields(record, "minIntervalMs", "maxIntervalMs", "alertAfterIntervalMs")
		if err != nil {
			return nil, err
		}
		return NewOnChangeWithKeepAliveSubscriptionQos(KeepAliveSettings{
			OnChangeSettings:     OnChangeSettings{Settings: base, MinIntervalMs: fields[0]},
			MaxIntervalMs:        fields[1],
			AlertAfterIntervalMs: fields[2],
		}), nil
	case PeriodicSubscriptionQosType:
		fields, err := int64Fields(record, "periodMs", "alertAfterIntervalMs")
		if err != nil {
			return nil, err
		}
		return NewPeriodicSubscriptionQos(PeriodicSettings{
			Settings:             base,
			PeriodMs:             fields[0],
			AlertAfterIntervalMs: fields[1],
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQosType, typeName)
	}
}

// ToRecord renders a descriptor as a settings record accepted by FromRecord.
func ToRecord(q Qos) map[string]any {
	record := map[string]any{
		TypeNameKey:        q.TypeName(),
		"expiryDateMs":     q.ExpiryDateMs(),
		"publicationTtlMs": q.PublicationTtlMs(),
	}
	switch v := q.(type) {
	case *OnChangeWithKeepAliveSubscriptionQos:
		record["minIntervalMs"] = v.MinIntervalMs()
		record["maxIntervalMs"] = v.MaxIntervalMs()
		record["alertAfterIntervalMs"] = v.AlertAfterIntervalMs()
	case *OnChangeSubscriptionQos:
		record["minIntervalMs"] = v.MinIntervalMs()
	case *PeriodicSubscriptionQos:
		record["periodMs"] = v.PeriodMs()
		record["alertAfterIntervalMs"] = v.AlertAfterIntervalMs()
	}
	return record
}

func settingsFromRecord(record map[string]any) (Settings, error) {
	fields, err := int64Fields(record, "expiryDateMs", "validityMs", "publicationTtlMs")
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		ExpiryDateMs:     fields[0],
		ValidityMs:       fields[1],
		PublicationTtlMs: fields[2],
	}, nil
}

func int64Fields(record map[string]any, keys ...string) ([]int64, error) {
	values := make([]int64, len(keys))
	for i, key := range keys {
		v, err := int64Field(record, key)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// int64Field returns 0 for a missing key
func int64Field(record map[string]any, key string) (int64, error) {
	raw, ok := record[key]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %s overflows int64", ErrInvalidQos, key)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidQos, key, v)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
		if v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("%w: %s overflows int64", ErrInvalidQos, key)
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidQos, key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidQos, key, raw)
	}
}
