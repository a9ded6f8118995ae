package push

// Details is the payload of a mobile notification. Message is required.
type Details struct {
	// Message is the notification text
	Message string `json:"message"`
	// AdditionalInfo is delivered to the app alongside the message
	AdditionalInfo map[string]any `json:"additional_info,omitempty"`
	// Badge is the iOS badge count
	Badge int `json:"badge_count,omitempty"`
	// Sound names the sound to play on arrival
	Sound string `json:"sound,omitempty"`
}

// fields returns the non-empty properties of d keyed by wire name.
func (d Details) fields() map[string]any {
	out := make(map[string]any, 4)
	if d.Message != "" {
		out["message"] = d.Message
	}
	if len(d.AdditionalInfo) > 0 {
		out["additional_info"] = d.AdditionalInfo
	}
	if d.Badge != 0 {
		out["badge_count"] = d.Badge
	}
	if d.Sound != "" {
		out["sound"] = d.Sound
	}
	return out
}
