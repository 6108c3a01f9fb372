// Package router routes requests to handlers in a standard basecamp app layout.
package router
