// Package redis stores customer profiles and conversation history in Redis.
//
// Profiles are whole JSON records under the user ID. Conversation turns are
// appended to a per-user list that optionally expires after SessionTTL of
// inactivity, which makes the list behave as session history.
package redis
