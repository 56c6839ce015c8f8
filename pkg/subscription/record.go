package subscription

import (
	"fmt"

	"github.com/zicheng-pan/joynr/pkg/subscriptionqos"
)

// Record keys of a multicast subscription settings record.
const (
	KeyMulticastID      = "multicastId"
	KeySubscribedToName = "subscribedToName"
	KeySubscriptionID   = "subscriptionId"
	KeyQos              = "qos"
)

// MulticastSubscriptionRequestFromRecord builds a request from an untyped settings record,
// typically a decoded JSON object. The record must be a map[string]any whose id and name
// fields are strings. The qos entry, when present, is either a subscriptionqos.Qos or a
// record understood by subscriptionqos.FromRecord.
func MulticastSubscriptionRequestFromRecord(record any) (*MulticastSubscriptionRequest, error) {
	if record == nil {
		return nil, invalidArgument("settings", "is required")
	}
	fields, ok := record.(map[string]any)
	if !ok {
		return nil, invalidArgument("settings", fmt.Sprintf("must be a record, got %T", record))
	}

	settings := &MulticastSubscriptionRequestSettings{}
	var err error
	if settings.MulticastID, err = stringField(fields, KeyMulticastID); err != nil {
		return nil, err
	}
	if settings.SubscribedToName, err = stringField(fields, KeySubscribedToName); err != nil {
		return nil, err
	}
	if settings.SubscriptionID, err = stringField(fields, KeySubscriptionID); err != nil {
		return nil, err
	}
	if settings.Qos, err = qosField(fields); err != nil {
		return nil, err
	}

	return NewMulticastSubscriptionRequest(settings)
}

// ToRecord renders the request as a settings record accepted by MulticastSubscriptionRequestFromRecord.
func (r *MulticastSubscriptionRequest) ToRecord() map[string]any {
	record := map[string]any{
		KeyMulticastID:      r.multicastID,
		KeySubscribedToName: r.subscribedToName,
		KeySubscriptionID:   r.subscriptionID,
	}
	if r.qos != nil {
		record[KeyQos] = subscriptionqos.ToRecord(r.qos)
	}
	return record
}

func stringField(fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", invalidArgument(key, "is required")
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalidArgument(key, fmt.Sprintf("must be a string, got %T", raw))
	}
	return s, nil
}

func qosField(fields map[string]any) (subscriptionqos.Qos, error) {
	raw, ok := fields[KeyQos]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case subscriptionqos.Qos:
		return v, nil
	case map[string]any:
		q, err := subscriptionqos.FromRecord(v)
		if err != nil {
			return nil, invalidArgument(KeyQos, err.Error())
		}
		return q, nil
	default:
		return nil, invalidArgument(KeyQos, fmt.Sprintf("must be a subscription qos, got %T", raw))
	}
}
