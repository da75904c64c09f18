package tracking

// Channel selects the composition and dispatch strategy for a record.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Known reports whether c is one of the supported delivery channels.
func (c Channel) Known() bool {
	return c == ChannelSMS || c == ChannelEmail
}
