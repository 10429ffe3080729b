// Package server exposes the storefront assistant as a JSON HTTP API.
//
// POST /chat accepts {"message": "...", "userId": "..."} and replies with
// {"botMessage": "..."}. userId is optional; without it the assistant answers
// anonymously and keeps no history.
package server
