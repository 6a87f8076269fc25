package domain

import "fmt"

// Payload is the push notification body handed to the dispatcher. The gateway
// downstream renders it; the engine only composes it.
type Payload struct {
	Title    string `json:"head"`
	Body     string `json:"body"`
	Icon     string `json:"icon"`
	ClickURL string `json:"url"`
	Tag      string `json:"tag,omitempty"`
}

// PersonalAlertPayload composes the notification for an alert at one of the
// user's saved locations: "<event> for <label>" plus the alert headline.
func PersonalAlertPayload(alert WarningPolygon, location MonitoredLocation, baseURL string) Payload {
	body := alert.Headline
	if body == "" {
		body = "Check the app for details."
	}
	return Payload{
		Title:    fmt.Sprintf("%s for %s", alert.Event, location.Label),
		Body:     body,
		Icon:     baseURL + "/static/images/icons/Icon_192.png",
		ClickURL: baseURL + "/weather/",
	}
}

// FamilyAlertPayload composes the household fan-out notification naming the
// warned user and the event type. The tag collapses stacked notifications
// about the same person on the receiving device.
func FamilyAlertPayload(warnedUsername string, warnedUserID int64, event EventType, baseURL string) Payload {
	return Payload{
		Title:    fmt.Sprintf("Family Alert: %s in a %s!", warnedUsername, event),
		Body:     "Their reported location is within an active warned area.",
		Icon:     baseURL + "/static/images/icons/Icon_192_alert.png",
		ClickURL: baseURL + "/accounts/family-map/",
		Tag:      fmt.Sprintf("family-alert-%d", warnedUserID),
	}
}
