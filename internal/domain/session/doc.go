// Package session saves and restores named workspace layouts.
//
// A session is a snapshot of a layout store stored under
// "session:<workspace>:<id>". The layout inside it uses the same versioned
// envelope as live layouts, so older sessions migrate on read.
//
// Example Usage:
//
//	sessions := session.NewManager(backend, logger)
//	saved, err := sessions.Save(ctx, store, "Review", "PR triage tabs")
//	_, err = sessions.Restore(ctx, store, saved.ID)
package session
