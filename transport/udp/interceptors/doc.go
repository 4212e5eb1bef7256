// Package interceptors provides receive-side interceptors for udp.DataPaths.
package interceptors
