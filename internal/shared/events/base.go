package events

import "reflect"

// EventMetadata asocia el tipo de evento con su struct de payload y su topic.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}
