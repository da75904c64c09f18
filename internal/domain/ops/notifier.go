package ops

// Notifier delivers operational alerts (cycle failures, daily stats) to
// whoever is on call. Implementations must be safe to call from cron jobs.
type Notifier interface {
	Notify(text string) error
}
