// Package chatv1 is the wire contract of the simplechat.v1.SimpleChat gRPC
// service: three RPCs (GetUsers, SendMessage and the server-streaming
// ReceiveMessages) carried with a JSON codec registered under the "json"
// content subtype.
package chatv1
