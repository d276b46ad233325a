package chatv1

// User is a directory entry.
type User struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
}

// Message is one chat message. Created is unix seconds, assigned by the
// server.
type Message struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Created   int64  `json:"created,omitempty"`
}

type GetUsersRequest struct{}

type GetUsersResponse struct {
	Users []*User `json:"users"`
}

type SendMessageRequest struct {
	Message *Message `json:"message"`
}

type SendMessageResponse struct {
	Created int64 `json:"created"`
}

// ReceiveMessagesRequest opens a stream of login's messages. Filter is an
// optional CEL expression over sender, recipient, body and created; Limit
// ends the stream after that many messages.
type ReceiveMessagesRequest struct {
	Login  string `json:"login"`
	Filter string `json:"filter,omitempty"`
	Limit  int32  `json:"limit,omitempty"`
}

func (m *Message) GetSender() string {
	if m == nil {
		return ""
	}
	return m.Sender
}

func (m *Message) GetRecipient() string {
	if m == nil {
		return ""
	}
	return m.Recipient
}

func (m *Message) GetBody() string {
	if m == nil {
		return ""
	}
	return m.Body
}

func (r *SendMessageRequest) GetMessage() *Message {
	if r == nil {
		return nil
	}
	return r.Message
}

func (m *Message) GetCreated() int64 {
	if m == nil {
		return 0
	}
	return m.Created
}

func (u *User) GetLogin() string {
	if u == nil {
		return ""
	}
	return u.Login
}

func (u *User) GetFullName() string {
	if u == nil {
		return ""
	}
	return u.FullName
}

func (r *GetUsersResponse) GetUsers() []*User {
	if r == nil {
		return nil
	}
	return r.Users
}

func (r *SendMessageResponse) GetCreated() int64 {
	if r == nil {
		return 0
	}
	return r.Created
}

func (r *ReceiveMessagesRequest) GetLogin() string {
	if r == nil {
		return ""
	}
	return r.Login
}

func (r *ReceiveMessagesRequest) GetLimit() int32 {
	if r == nil {
		return 0
	}
	return r.Limit
}
