// Package app provides application initialization and lifecycle management.
// It wires the configuration, logging, observability, storage, scraping and
// HTTP layers together at startup and handles graceful shutdown.
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and observability
//	3. Open the store and create the quote cache
//	4. Initialize the scraper and the services
//	5. Set up HTTP handlers and middleware
//	6. Configure and start the HTTP server
//
// On SIGINT or SIGTERM the application completes active requests, closes
// WebSocket connections, stops the cache janitor and closes the database
// before exiting. All initialization errors are returned to the caller;
// the package never calls os.Exit() directly.
package app
