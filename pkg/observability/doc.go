/*
Package observability provides tools for monitoring the script scheduler.

It composes lifecycle hooks so several consumers (metrics, logging, event
streams) can observe the same domain, and broadcasts lifecycle events as text
lines to any number of watchers.
*/
package observability
