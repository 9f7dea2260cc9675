// Package logging is the process logger: printf-style helpers over a
// zerolog console writer on stderr.
//
// The level comes from LOG_LEVEL (debug, info, warn or error; info when
// unset) unless DEBUG is truthy, which forces debug. Printf and Println
// ignore the level; the HTTP access log uses them.
package logging
