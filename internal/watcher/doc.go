// Package watcher rescans the inventory when desktop entries change.
//
// The Watcher subscribes to the desktop-entry search directories through
// fsnotify. Bursts of Create/Write/Remove/Rename events on *.desktop files
// are coalesced by a debounce timer and each burst triggers one background
// scan. Only the newest scan's inventory is delivered; superseded scans are
// dropped by the scanner.
//
// Key features:
//   - Event-driven, no polling
//   - Debounced rescans (package installs touch many files at once)
//   - Last-writer-wins delivery of results
//   - Daemon mode support with PID file management
//   - Graceful shutdown with SIGTERM/SIGINT handling
//
// Example usage:
//
//	sc := scanner.New(source)
//	w, err := watcher.New(sc, func(r *scanner.Result, err error) {
//		fmt.Println(len(r.Packages), "rows")
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
package watcher
