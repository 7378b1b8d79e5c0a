// Package browser launches headless browser sessions and drives result
// pagination.
//
// Launcher opens Chromium through go-rod with the usual automation
// signals removed and the go-rod/stealth evasions applied, optionally
// behind a proxy. The pipeline only sees the Session and Element
// interfaces, so tests substitute in-memory fakes.
package browser
