// Package weather_tools registers the Netatmo weather tools: current
// readings for every station and module, and the history of a single
// module over a look-back window.
//
// Netatmo failures never surface as protocol errors. Missing authentication
// returns the guidance text pointing at the auth page, and HTTP failures are
// reported as "Failed to fetch Netatmo data: ...".
package weather_tools
