package models

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// NotificationResult holds the result of a notification attempt.
type NotificationResult struct {
	Sent  bool
	Error error
}
