// Package platform defines the contract between the bot core and the chat
// platform. The gateway connection and REST transport live behind the Client
// interface; the core only sees typed events and calls.
package platform
