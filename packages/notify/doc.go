// Package notify sends run summaries to chat services.
//
// The Manager decides whether a run is worth announcing:
//   - always: every run
//   - failure: runs with a failed check or a fatal error
//   - success: runs where every check passed
//   - recovery: failures, plus the first passing run after a failure
//
// Slack incoming webhooks are the only service implemented.
package notify
