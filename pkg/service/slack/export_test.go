package slack

// Export conversion helpers for testing
var (
	ToUser    = toUser
	ToChannel = toChannel
)
