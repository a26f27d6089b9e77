// Package workspace keeps one layout store per workspace.
//
// Stores are loaded through the persistence adapter on first use, so a
// missing or unreadable layout starts from the defaults. When MaxLoaded is
// set, the least recently used store without subscribers is evicted; its
// layout stays in storage and reloads on the next Open.
package workspace
