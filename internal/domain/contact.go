package domain

// ContactMessage - сообщение из контактной формы сайта.
type ContactMessage struct {
	Name         string
	Email        string
	Message      string
	CaptchaToken string
	RemoteIP     string
}
