// Package weather turns Netatmo station data into the plain-text answers
// returned by the MCP tools.
//
// Everything here is pure: module name resolution, measurement scale
// selection and the text formatting of current readings and history tables.
package weather
