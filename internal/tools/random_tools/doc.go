// Package random_tools provides the generate_random_number tool.
package random_tools
