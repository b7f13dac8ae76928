package listener

type Event struct {
	Type    EventType
	Details string
}

// EventType is mostly for logging; the app decides what each one triggers.
type EventType string

const (
	ConfigUpdatedEvent  EventType = "CONFIG_UPDATED"
	DisplayAddEvent     EventType = "DISPLAY_ADDED"
	DisplayRemoveEvent  EventType = "DISPLAY_REMOVED"
	DisplayUnknownEvent EventType = "DISPLAY_UNKNOWN_EVENT"
	IdleWakeEvent       EventType = "IDLE_WAKE"
	LidSwitchEvent      EventType = "LID_SWITCH"
)

// commandEvents are the events other hyprdisplay processes may send over the
// command socket.
var commandEvents = map[string]EventType{
	string(LidSwitchEvent):      LidSwitchEvent,
	string(IdleWakeEvent):       IdleWakeEvent,
	string(DisplayUnknownEvent): DisplayUnknownEvent,
}
