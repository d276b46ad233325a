package mailbox

import "net/url"

// Key layout (all segments are url.PathEscape'd, so "/" inside a login
// never creates a new segment):
//
//	user/{login}                                 -> User JSON
//	message/queue/user/{recipient}/{messageID}   -> Message JSON
const (
	userRoot    = "user/"
	mailboxRoot = "message/queue/user/"
)

// UserPrefix is the prefix under which all User records live.
func UserPrefix() string { return userRoot }

// UserKey returns the key of the User record for login.
func UserKey(login string) string { return userRoot + url.PathEscape(login) }

// MailboxPrefix returns the prefix of every queued message for recipient.
// The trailing delimiter keeps "bob" from matching "bobby".
func MailboxPrefix(recipient string) string {
	return mailboxRoot + url.PathEscape(recipient) + "/"
}

// MailboxKey returns the store key of one queued message.
func MailboxKey(recipient, messageID string) string {
	return MailboxPrefix(recipient) + url.PathEscape(messageID)
}
