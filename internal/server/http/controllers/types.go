package controllers

import "github.com/CHESTERFIELD/simple-chat/internal/mailbox"

// Common request/response types for HTTP controllers

type userItem struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
}

type usersResp struct {
	Users []userItem `json:"users"`
}

// sendReq is the body of POST /v1/messages. A client-supplied created is
// not accepted; the server stamps it.
type sendReq struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

type sendResp struct {
	Created int64 `json:"created"`
}

// messageItem is one delivered message on the SSE and websocket streams.
type messageItem struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Created   int64  `json:"created"`
}

func toMessageItem(m mailbox.Message) messageItem {
	return messageItem{Sender: m.Sender, Recipient: m.Recipient, Body: m.Body, Created: m.Created.Unix()}
}
