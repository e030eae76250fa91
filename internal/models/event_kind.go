package models

// EventKind represents one of the six webhook event categories
// (pictures/references x create/update/delete)
type EventKind string

const (
	PicturesCreate   EventKind = "pictures/create"
	PicturesUpdate   EventKind = "pictures/update"
	PicturesDelete   EventKind = "pictures/delete"
	ReferencesCreate EventKind = "references/create"
	ReferencesUpdate EventKind = "references/update"
	ReferencesDelete EventKind = "references/delete"
)

// EventKinds lists every known kind, in a stable order.
// Used to seed webhook configs when a client is created.
var EventKinds = []EventKind{
	PicturesCreate,
	PicturesUpdate,
	PicturesDelete,
	ReferencesCreate,
	ReferencesUpdate,
	ReferencesDelete,
}

// eventKindToStreamType maps each kind to the event type string understood
// by the stream API. The mapping is static and bijective.
var eventKindToStreamType = map[EventKind]string{
	PicturesCreate:   "picture.create",
	PicturesUpdate:   "picture.update",
	PicturesDelete:   "picture.delete",
	ReferencesCreate: "reference.create",
	ReferencesUpdate: "reference.update",
	ReferencesDelete: "reference.delete",
}

// EventKindForTopic maps an inbound Grand Shooting topic to its EventKind.
// Returns false for topics we do not relay; the caller must reject the
// whole payload in that case, this is not an error.
func EventKindForTopic(topic string) (EventKind, bool) {
	kind := EventKind(topic)
	_, ok := eventKindToStreamType[kind]
	return kind, ok
}

// StreamEventType returns the wire event type string for the kind.
// Returns false for kinds that are no longer recognized (schema drift
// in stored failed events).
func (k EventKind) StreamEventType() (string, bool) {
	streamType, ok := eventKindToStreamType[k]
	return streamType, ok
}

// Valid reports whether the kind is one of the six known values.
func (k EventKind) Valid() bool {
	_, ok := eventKindToStreamType[k]
	return ok
}
