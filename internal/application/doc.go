// Package application provides dependency wiring for the masterserver. It
// receives the loaded configuration at construction time and builds the
// recent servers storage, branding and database pool from it, keeping the
// main package focused on CLI parsing and orchestration.
package application
