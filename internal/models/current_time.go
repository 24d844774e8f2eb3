package models

import "time"

// CurrentTimeModel Current time specific model
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
}

// NewCurrentTimeModel renders t in epoch milliseconds and RFC 3339 in loc.
func NewCurrentTimeModel(t time.Time, loc *time.Location) CurrentTimeModel {
	if loc != nil {
		t = t.In(loc)
	}
	return CurrentTimeModel{
		ReadableTime: t.Format(time.RFC3339),
		Time:         t.UnixMilli(),
	}
}
