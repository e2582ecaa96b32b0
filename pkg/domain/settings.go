package domain

// AppSettings are the local client preferences, stored under "app_settings".
type AppSettings struct {
	MessageNotification    bool `json:"messageNotification"`
	SoundReminder          bool `json:"soundReminder"`
	VibrationReminder      bool `json:"vibrationReminder"`
	ShowReservationHistory bool `json:"showReservationHistory"`
	ShowContactInfo        bool `json:"showContactInfo"`
}

// DefaultAppSettings is written on first launch.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		MessageNotification:    true,
		SoundReminder:          true,
		VibrationReminder:      true,
		ShowReservationHistory: true,
		ShowContactInfo:        false,
	}
}
