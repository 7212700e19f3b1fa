package event

import (
	"github.com/sirupsen/logrus"
)

// EventHandler reacts to a committed event record.
// A handler returns nil when the event is not its concern.
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

// invokeHandlers runs after the domain transaction commits.
// A failing handler is logged and never affects the committed transition.
func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	for _, handler := range EventHandlers {
		r := handler(record)
		if r == nil {
			continue
		}
		results = append(results, *r)

		entry := logrus.WithFields(logrus.Fields{
			"handler":       r.HandlerIdentifier,
			"eventCategory": record.EventCategory,
			"sourceId":      record.SourceId,
		})
		if r.Success {
			entry.Info("event handled")
		} else {
			entry.Error("event handler failed: ", r.Message)
		}
	}
	return results
}
